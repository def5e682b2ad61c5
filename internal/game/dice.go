package game

import (
	"math/rand"

	"github.com/google/uuid"
)

type DieColor string

const (
	White DieColor = "WHITE"
	Red   DieColor = "RED"
	Blue  DieColor = "BLUE"
)

// Die is a single die in a player's round pool. White dice are always
// revealed; red and blue stay hidden until they are committed into a hand.
type Die struct {
	ID       string   `json:"id"`
	Color    DieColor `json:"color"`
	Value    int      `json:"value"`
	Spent    bool     `json:"spent"`
	Revealed bool     `json:"revealed"`
}

const (
	whiteDicePerRound = 9
	dicePerRound      = 11
	dicePerSet        = 3
)

// RollRoundDice rolls a fresh 11-die pool: 9 white, 1 red, 1 blue, in that
// order. Auto-selection takes the earliest unspent dice, so whites come
// first.
func RollRoundDice(rng *rand.Rand) []Die {
	dice := make([]Die, 0, dicePerRound)
	for i := 0; i < whiteDicePerRound; i++ {
		dice = append(dice, rollDie(rng, White))
	}
	dice = append(dice, rollDie(rng, Red), rollDie(rng, Blue))
	return dice
}

func rollDie(rng *rand.Rand, color DieColor) Die {
	return Die{
		ID:       uuid.NewString(),
		Color:    color,
		Value:    rng.Intn(6) + 1,
		Revealed: color == White,
	}
}

// Roll2d6 rolls the two opening dice used for initial turn order.
func Roll2d6(rng *rand.Rand) [2]int {
	return [2]int{rng.Intn(6) + 1, rng.Intn(6) + 1}
}
