package state

import "time"

// Entry is one relayed item in the ledger. Entries are appended only after
// the destination confirms the terminal publish phase.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Ledger is the in-memory view of the relayed-item set. The id is the
// identity; recording an id twice is a no-op.
type Ledger struct {
	entries []Entry
	index   map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]struct{})}
}

// IsNew reports whether id has not been relayed yet.
func (l *Ledger) IsNew(id string) bool {
	if l == nil {
		return true
	}
	_, seen := l.index[id]
	return !seen
}

// Record appends an entry. It returns false without modifying the ledger
// when the id is already present.
func (l *Ledger) Record(id, name string, uploadedAt time.Time) bool {
	if id == "" || !l.IsNew(id) {
		return false
	}
	l.entries = append(l.entries, Entry{ID: id, Name: name, UploadedAt: uploadedAt.UTC()})
	l.index[id] = struct{}{}
	return true
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns the recorded entries in append order.
func (l *Ledger) Entries() []Entry {
	cp := make([]Entry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// Cursor is the rotation pointer over a fixed set of pre-split clips.
type Cursor struct {
	NextIndex int `json:"next_index"`
}

// Clamp maps the cursor into [0, total) via modulo. A shrunken clip set
// therefore wraps instead of erroring; total <= 0 yields 0.
func (c Cursor) Clamp(total int) int {
	if total <= 0 {
		return 0
	}
	idx := c.NextIndex % total
	if idx < 0 {
		idx += total
	}
	return idx
}

// Advanced returns the cursor moved one position forward modulo total.
func (c Cursor) Advanced(total int) Cursor {
	if total <= 0 {
		return c
	}
	return Cursor{NextIndex: (c.Clamp(total) + 1) % total}
}
