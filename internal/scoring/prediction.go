package scoring

// Prediction is a player's bet on their own round total before any dice are
// committed. The empty value means no prediction has been made yet.
type Prediction string

const (
	PredictionNone Prediction = ""
	PredictionZero Prediction = "ZERO"
	PredictionMin  Prediction = "MIN"
	PredictionMore Prediction = "MORE"
	PredictionMax  Prediction = "MAX"
)

// ZeroBonus is the flat award for a correct ZERO prediction; the other
// types award the round total itself.
const ZeroBonus = 40

type predictionRange struct {
	lo, hi int
}

var predictionRanges = map[int]map[Prediction]predictionRange{
	2: {
		PredictionZero: {0, 0},
		PredictionMore: {6, 6},
		PredictionMax:  {12, 12},
	},
	3: {
		PredictionZero: {0, 0},
		PredictionMin:  {3, 3},
		PredictionMore: {6, 9},
		PredictionMax:  {10, 12},
	},
	4: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {6, 9},
		PredictionMax:  {10, 12},
	},
	5: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {5, 8},
		PredictionMax:  {10, 12},
	},
	6: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {5, 9},
		PredictionMax:  {10, 12},
	},
}

// AvailablePredictions lists the prediction types offered for a player
// count. MIN is not offered in 2-player games.
func AvailablePredictions(playerCount int) []Prediction {
	if playerCount == 2 {
		return []Prediction{PredictionZero, PredictionMore, PredictionMax}
	}
	if _, ok := predictionRanges[playerCount]; !ok {
		return nil
	}
	return []Prediction{PredictionZero, PredictionMin, PredictionMore, PredictionMax}
}

// PredictionRange returns the closed target range for a prediction at a
// player count; ok is false when the type is not offered for that count.
func PredictionRange(playerCount int, p Prediction) (lo, hi int, ok bool) {
	r, found := predictionRanges[playerCount][p]
	if !found {
		return 0, 0, false
	}
	return r.lo, r.hi, true
}

// PredictionBonus computes the bonus for a round total. ZERO pays a flat 40
// when the total landed on 0; MIN/MORE/MAX pay the round total itself when
// it landed inside the range. A miss pays nothing.
func PredictionBonus(playerCount int, p Prediction, roundTotal float64) float64 {
	lo, hi, ok := PredictionRange(playerCount, p)
	if !ok {
		return 0
	}
	if roundTotal < float64(lo) || roundTotal > float64(hi) {
		return 0
	}
	if p == PredictionZero {
		return ZeroBonus
	}
	return roundTotal
}
