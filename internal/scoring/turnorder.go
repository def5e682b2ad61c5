package scoring

import "sort"

// InitialRoll is one player's 2d6 opening roll.
type InitialRoll struct {
	PlayerID string `json:"playerId"`
	Dice     [2]int `json:"dice"`
}

func (r InitialRoll) Total() int {
	return r.Dice[0] + r.Dice[1]
}

// InitialTurnOrder orders players by ascending opening-roll total, lowest
// first. Ties keep the input order.
func InitialTurnOrder(rolls []InitialRoll) []string {
	sorted := make([]InitialRoll, len(rolls))
	copy(sorted, rolls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total() < sorted[j].Total()
	})
	order := make([]string, len(sorted))
	for i, r := range sorted {
		order[i] = r.PlayerID
	}
	return order
}

// Standing pairs a player with their cumulative score.
type Standing struct {
	PlayerID string
	Score    float64
}

// NextTurnOrder orders players for rounds after the first: cumulative score
// descending, ties broken by earlier position in the round-1 initial order.
// Players missing from the initial order sort after those present in it.
func NextTurnOrder(standings []Standing, initialOrder []string) []string {
	pos := make(map[string]int, len(initialOrder))
	for i, id := range initialOrder {
		pos[id] = i
	}
	rank := func(id string) int {
		if p, ok := pos[id]; ok {
			return p
		}
		return len(initialOrder)
	}

	sorted := make([]Standing, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return rank(sorted[i].PlayerID) < rank(sorted[j].PlayerID)
	})

	order := make([]string, len(sorted))
	for i, s := range sorted {
		order[i] = s.PlayerID
	}
	return order
}
