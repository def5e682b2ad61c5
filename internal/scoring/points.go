package scoring

import "sort"

// Per-placement points by player count. Index 0 is first place.
var placementPoints = map[int][]float64{
	2: {6, 0},
	3: {6, 3, 0},
	4: {6, 3, 1, 0},
	5: {6, 4, 2, 1, 0},
	6: {6, 4, 3, 2, 1, 0},
}

// PlacementPoints returns a copy of the points table for the given player
// count, or nil if the count is unsupported.
func PlacementPoints(playerCount int) []float64 {
	table, ok := placementPoints[playerCount]
	if !ok {
		return nil
	}
	out := make([]float64, len(table))
	copy(out, table)
	return out
}

// SetEntry is one player's committed hand for a set.
type SetEntry struct {
	PlayerID string
	Hand     EvaluatedHand
}

// SetPlacement is the outcome for one player: 1-based placement and the
// points earned, which may be fractional when a tie-group splits a span of
// placements.
type SetPlacement struct {
	PlayerID  string
	Placement int
	Points    float64
}

// ScoreSet ranks the entries and awards points from the placement table for
// len(entries) players. A tie-group of size t sharing placement k occupies
// placements k..k+t-1 and splits that span's points evenly. The result is
// ordered best hand first; the input slice is left untouched.
func ScoreSet(entries []SetEntry) []SetPlacement {
	table := placementPoints[len(entries)]
	if table == nil {
		return nil
	}

	ranked := make([]SetEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Compare(ranked[i].Hand, ranked[j].Hand) > 0
	})

	out := make([]SetPlacement, 0, len(ranked))
	for start := 0; start < len(ranked); {
		end := start + 1
		for end < len(ranked) && Compare(ranked[start].Hand, ranked[end].Hand) == 0 {
			end++
		}
		span := 0.0
		for i := start; i < end; i++ {
			span += table[i]
		}
		share := span / float64(end-start)
		for i := start; i < end; i++ {
			out = append(out, SetPlacement{
				PlayerID:  ranked[i].PlayerID,
				Placement: start + 1,
				Points:    share,
			})
		}
		start = end
	}
	return out
}
