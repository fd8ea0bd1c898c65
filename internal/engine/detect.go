package engine

import "github.com/shaharia-lab/stockbell/internal/shop"

// NoneID is the last-processed id before any snapshot was processed. Real
// report ids are positive decimal numbers, so it never equals one.
const NoneID = "none"

// IsNew reports whether snap differs from the last processed report.
func IsNew(snap *shop.Snapshot, lastProcessedID string) bool {
	return snap.ID() != lastProcessedID
}

// Matches returns the stocked item names that are on the watchlist, in
// snapshot order without duplicates. It is empty when either side is.
func Matches(snap *shop.Snapshot, watchlist []string) []string {
	if snap == nil || len(watchlist) == 0 {
		return []string{}
	}

	want := make(map[string]struct{}, len(watchlist))
	for _, w := range watchlist {
		want[w] = struct{}{}
	}

	matched := []string{}
	seen := make(map[string]struct{})
	for _, name := range snap.Names() {
		if _, ok := want[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		matched = append(matched, name)
	}
	return matched
}
