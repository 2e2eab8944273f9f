package state

import (
	"encoding/json"
	"fmt"
)

// SnapshotVersion tags the persisted schema so it can evolve safely.
const SnapshotVersion = 1

// Snapshot is the fixed-schema JSON document mirrored to durable storage.
type Snapshot struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
	Cursor  Cursor  `json:"cursor"`
}

// EncodeSnapshot serializes the ledger and cursor.
func EncodeSnapshot(ledger *Ledger, cursor Cursor) ([]byte, error) {
	snap := Snapshot{
		Version: SnapshotVersion,
		Entries: ledger.Entries(),
		Cursor:  cursor,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot document. Entries without an id are
// skipped; duplicate ids keep the first occurrence. Versions newer than this
// build understands are rejected so an old binary never rewrites state it
// cannot fully represent.
func DecodeSnapshot(data []byte) (*Ledger, Cursor, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, Cursor{}, fmt.Errorf("decode state snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, Cursor{}, fmt.Errorf("state snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}
	ledger := NewLedger()
	for _, entry := range snap.Entries {
		ledger.Record(entry.ID, entry.Name, entry.UploadedAt)
	}
	return ledger, snap.Cursor, nil
}
