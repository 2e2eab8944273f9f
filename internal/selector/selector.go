// Package selector decides which item a run relays. The oldest-unseen
// policy walks the catalog listing for the earliest item the ledger has not
// recorded; the rotation policy indexes a fixed clip set with the cursor.
package selector

import (
	"sort"

	"clipcast/internal/catalog"
	"clipcast/internal/state"
)

// OldestUnseen returns the catalog item with the earliest creation time
// whose id the ledger has not recorded. The second return is false when
// every item has been relayed already or the listing is empty.
func OldestUnseen(items []catalog.Item, ledger *state.Ledger) (catalog.Item, bool) {
	ordered := make([]catalog.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for _, item := range ordered {
		if ledger.IsNew(item.ID) {
			return item, true
		}
	}
	return catalog.Item{}, false
}

// NextClip picks the clip the rotation cursor points at. The cursor is
// clamped into the current clip set, so a set that shrank since the cursor
// was written wraps instead of failing. The returned index is the clamped
// position, which the caller advances after a confirmed publish.
func NextClip(clips []string, cursor state.Cursor) (string, int, bool) {
	if len(clips) == 0 {
		return "", 0, false
	}
	idx := cursor.Clamp(len(clips))
	return clips[idx], idx, true
}
