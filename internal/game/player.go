package game

import (
	"github.com/google/uuid"

	"github.com/r3xsean/devilsdice/internal/scoring"
)

type Player struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	SessionID  string             `json:"-"`
	Dice       []Die              `json:"dice"`
	Score      float64            `json:"score"`
	RoundScore float64            `json:"roundScore"`
	Set1Score  float64            `json:"set1Score"`
	Set2Score  float64            `json:"set2Score"`
	Prediction scoring.Prediction `json:"prediction"`
	Connected  bool               `json:"isConnected"`
	Ready      bool               `json:"isReady"`
	Host       bool               `json:"isHost"`
}

func NewPlayer(name, sessionID string) *Player {
	return &Player{
		ID:        uuid.NewString(),
		Name:      name,
		SessionID: sessionID,
		Connected: true,
	}
}

// DieByID finds one of the player's dice.
func (p *Player) DieByID(id string) *Die {
	for i := range p.Dice {
		if p.Dice[i].ID == id {
			return &p.Dice[i]
		}
	}
	return nil
}

// UnspentDieIDs lists the ids of dice still available for selection, in
// pool order.
func (p *Player) UnspentDieIDs() []string {
	ids := make([]string, 0, len(p.Dice))
	for _, d := range p.Dice {
		if !d.Spent {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// ResetForRound clears the per-round fields and hands the player a fresh
// dice pool.
func (p *Player) ResetForRound(dice []Die) {
	p.Dice = dice
	p.RoundScore = 0
	p.Set1Score = 0
	p.Set2Score = 0
	p.Prediction = scoring.PredictionNone
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Dice = make([]Die, len(p.Dice))
	copy(cp.Dice, p.Dice)
	return &cp
}
