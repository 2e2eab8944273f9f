// Package config loads, validates, and defaults clipcast's TOML
// configuration. All path fields are expanded to absolute paths and secrets
// may be overridden from the environment during normalization.
package config
