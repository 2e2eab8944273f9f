package state_test

import (
	"testing"
	"time"

	"clipcast/internal/state"
)

func TestLedgerRecordIsIdempotent(t *testing.T) {
	ledger := state.NewLedger()
	now := time.Now()

	if !ledger.Record("a", "first.mp4", now) {
		t.Fatal("first record should succeed")
	}
	if ledger.Record("a", "renamed.mp4", now.Add(time.Hour)) {
		t.Fatal("second record of the same id should be a no-op")
	}
	if ledger.Len() != 1 {
		t.Fatalf("len = %d; want 1", ledger.Len())
	}
	if ledger.Entries()[0].Name != "first.mp4" {
		t.Fatal("duplicate record must not overwrite the original entry")
	}
}

func TestLedgerIsNew(t *testing.T) {
	ledger := state.NewLedger()
	ledger.Record("a", "a.mp4", time.Now())

	if ledger.IsNew("a") {
		t.Fatal("recorded id should not be new")
	}
	if !ledger.IsNew("b") {
		t.Fatal("unrecorded id should be new")
	}
}

func TestLedgerRejectsEmptyID(t *testing.T) {
	ledger := state.NewLedger()
	if ledger.Record("", "x", time.Now()) {
		t.Fatal("empty id must not be recorded")
	}
}

func TestCursorClampWithinRange(t *testing.T) {
	for _, tc := range []struct {
		next, total, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 0},
		{2, 2, 0}, // segment count shrank underneath the cursor
		{7, 3, 1},
		{3, 0, 0},
		{-1, 4, 3},
	} {
		got := state.Cursor{NextIndex: tc.next}.Clamp(tc.total)
		if got != tc.want {
			t.Errorf("Clamp(next=%d, total=%d) = %d; want %d", tc.next, tc.total, got, tc.want)
		}
	}
}

func TestCursorAdvanceStaysInRange(t *testing.T) {
	cursor := state.Cursor{}
	for i := 0; i < 10; i++ {
		cursor = cursor.Advanced(3)
		if idx := cursor.Clamp(3); idx < 0 || idx >= 3 {
			t.Fatalf("cursor escaped range after advance: %d", idx)
		}
	}
	if cursor.NextIndex != 10%3 {
		t.Fatalf("NextIndex = %d; want %d", cursor.NextIndex, 10%3)
	}
}

func TestCursorAdvanceEmptySetIsNoop(t *testing.T) {
	cursor := state.Cursor{NextIndex: 2}
	if got := cursor.Advanced(0); got != cursor {
		t.Fatalf("advance over empty set mutated cursor: %+v", got)
	}
}
