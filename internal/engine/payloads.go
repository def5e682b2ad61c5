package engine

import (
	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/scoring"
)

// Server→client event names.
const (
	EvtPlayerJoined      = "room:playerJoined"
	EvtPlayerLeft        = "room:playerLeft"
	EvtConfigUpdated     = "room:configUpdated"
	EvtHostChanged       = "room:hostChanged"
	EvtStateUpdate       = "game:stateUpdate"
	EvtPhaseChange       = "game:phaseChange"
	EvtTurnStart         = "game:turnStart"
	EvtTimerTick         = "game:timerTick"
	EvtInitialRoll       = "game:initialRoll"
	EvtPredictionMade    = "prediction:submitted"
	EvtPredictionsDone   = "prediction:allSubmitted"
	EvtAutoSubmitting    = "prediction:autoSubmitting"
	EvtDiceSelected      = "dice:selected"
	EvtDiceConfirmed     = "dice:confirmed"
	EvtSetReveal         = "set:reveal"
	EvtRoundComplete     = "round:complete"
	EvtGameOver          = "game:over"
	EvtAcknowledged      = "results:acknowledged"
	EvtWaitingFor        = "results:waitingFor"
	EvtPlayerDisconnect  = "player:disconnected"
	EvtPlayerReconnect   = "player:reconnected"
)

// Sink receives the actor's outbound events. Broadcast sends one payload to
// every session in the room; BroadcastEach builds a payload per recipient,
// which is how hidden dice stay hidden from opponents.
type Sink interface {
	Broadcast(roomCode, event string, payload any)
	BroadcastEach(roomCode, event string, build func(viewerID string) any)
}

type StatePayload struct {
	Phase     game.Phase  `json:"phase"`
	GameState *game.State `json:"gameState"`
}

type TurnStartPayload struct {
	PlayerID      string `json:"playerId"`
	TimeRemaining int    `json:"timeRemaining"`
}

type TimerTickPayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type InitialRollPayload struct {
	Results   []scoring.InitialRoll `json:"results"`
	TurnOrder []string              `json:"turnOrder"`
}

type PlayerIDPayload struct {
	PlayerID string `json:"playerId"`
}

type AutoSubmittingPayload struct {
	Countdown int `json:"countdown"`
}

type DiceSelectedPayload struct {
	PlayerID    string     `json:"playerId"`
	VisibleDice []game.Die `json:"visibleDice"`
	HiddenCount int        `json:"hiddenCount"`
}

type SetRevealPayload struct {
	Results   []game.SetResult `json:"results"`
	GameState *game.State      `json:"gameState"`
}

type RoundCompletePayload struct {
	Result    game.RoundResult `json:"result"`
	GameState *game.State      `json:"gameState"`
}

type GameOverPayload struct {
	FinalStandings []game.Standing `json:"finalStandings"`
}

type AcknowledgedPayload struct {
	PlayerID          string `json:"playerId"`
	AcknowledgedCount int    `json:"acknowledgedCount"`
	TotalCount        int    `json:"totalCount"`
}

type WaitingForPayload struct {
	WaitingForPlayerIDs []string `json:"waitingForPlayerIds"`
}

type PlayerJoinedPayload struct {
	Player    *game.Player `json:"player"`
	GameState *game.State  `json:"gameState"`
}

type HostChangedPayload struct {
	NewHostID string `json:"newHostId"`
}

type ConfigUpdatedPayload struct {
	Config game.Config `json:"config"`
}
