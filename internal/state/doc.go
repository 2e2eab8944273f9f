// Package state owns everything that must survive between invocations: the
// dedup ledger and the rotation cursor. Local persistence is SQLite; a
// versioned JSON snapshot is mirrored to an S3-compatible object store so
// ephemeral runners can rehydrate on the next run.
package state
