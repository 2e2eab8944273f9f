// Package catalog enumerates and fetches candidate media items from the
// remote source container. The production implementation reads a Google
// Drive folder; the interface keeps the orchestrator testable with fakes.
package catalog
