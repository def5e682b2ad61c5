// Package scoring holds the pure rules kernel: hand evaluation and
// comparison, placement points with tie splitting, prediction ranges and
// bonuses, and turn-order computation. Nothing in here touches timers,
// sockets or storage, and no function mutates its inputs.
package scoring

import (
	"fmt"
	"sort"
)

type HandRank int

const (
	RankSingle HandRank = iota
	RankDouble
	RankStraight
	RankTriple
)

func (r HandRank) String() string {
	switch r {
	case RankSingle:
		return "SINGLE"
	case RankDouble:
		return "DOUBLE"
	case RankStraight:
		return "STRAIGHT"
	case RankTriple:
		return "TRIPLE"
	}
	return "UNKNOWN"
}

// EvaluatedHand is the comparable value of a committed 3-die hand.
// Primary/Secondary/Tertiary are the tie-break values in order of weight;
// unused slots are zero.
type EvaluatedHand struct {
	Rank        HandRank `json:"rank"`
	Primary     int      `json:"primary"`
	Secondary   int      `json:"secondary"`
	Tertiary    int      `json:"tertiary"`
	Description string   `json:"description"`
}

// Evaluate classifies exactly three die values. Straights are the four
// literal runs 1-2-3 through 4-5-6; there is no wrap-around.
func Evaluate(values []int) (EvaluatedHand, error) {
	if len(values) != 3 {
		return EvaluatedHand{}, fmt.Errorf("hand must contain exactly 3 dice, got %d", len(values))
	}
	for _, v := range values {
		if v < 1 || v > 6 {
			return EvaluatedHand{}, fmt.Errorf("die value out of range: %d", v)
		}
	}

	sorted := make([]int, 3)
	copy(sorted, values)
	sort.Ints(sorted)
	low, mid, high := sorted[0], sorted[1], sorted[2]

	switch {
	case low == mid && mid == high:
		return EvaluatedHand{
			Rank:        RankTriple,
			Primary:     high,
			Description: fmt.Sprintf("Triple %ds", high),
		}, nil
	case mid == low+1 && high == mid+1:
		return EvaluatedHand{
			Rank:        RankStraight,
			Primary:     high,
			Description: fmt.Sprintf("Straight %d-%d-%d", low, mid, high),
		}, nil
	case low == mid:
		return EvaluatedHand{
			Rank:        RankDouble,
			Primary:     low,
			Secondary:   high,
			Description: fmt.Sprintf("Pair of %ds, %d kicker", low, high),
		}, nil
	case mid == high:
		return EvaluatedHand{
			Rank:        RankDouble,
			Primary:     high,
			Secondary:   low,
			Description: fmt.Sprintf("Pair of %ds, %d kicker", high, low),
		}, nil
	default:
		return EvaluatedHand{
			Rank:        RankSingle,
			Primary:     high,
			Secondary:   mid,
			Tertiary:    low,
			Description: fmt.Sprintf("%d-%d-%d high", high, mid, low),
		}, nil
	}
}

// Compare returns >0 if a beats b, <0 if b beats a, 0 on a tie.
func Compare(a, b EvaluatedHand) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	if a.Primary != b.Primary {
		return a.Primary - b.Primary
	}
	if a.Secondary != b.Secondary {
		return a.Secondary - b.Secondary
	}
	return a.Tertiary - b.Tertiary
}
