// Package logging builds the slog loggers used across clipcast: a compact
// console handler for interactive use and a JSON handler for scheduled runs.
package logging
