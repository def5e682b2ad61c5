package gateway

import (
	"encoding/json"

	"github.com/r3xsean/devilsdice/internal/game"
)

// Wire envelope. Every frame in either direction is one JSON object with an
// event name and an event-specific data object.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client → server events.
const (
	EvtRoomCreate    = "room:create"
	EvtRoomJoin      = "room:join"
	EvtRoomLeave     = "room:leave"
	EvtRoomReconnect = "room:reconnect"
	EvtGameReady     = "game:ready"
	EvtGameUnready   = "game:unready"
	EvtUpdateConfig  = "game:updateConfig"
	EvtGameStart     = "game:start"
	EvtPredict       = "prediction:submit"
	EvtDiceSelect    = "dice:select"
	EvtDiceConfirm   = "dice:confirm"
	EvtAckResults    = "game:acknowledgeResults"
)

// Server → client events owned by the gateway itself; in-game broadcasts use
// the engine's event names.
const (
	EvtRoomCreated      = "room:created"
	EvtRoomJoined       = "room:joined"
	EvtRoomError        = "room:error"
	EvtReconnectSuccess = "reconnect:success"
	EvtReconnectFailed  = "reconnect:failed"
)

type createRequest struct {
	PlayerName string               `json:"playerName"`
	Config     game.ConfigOverrides `json:"config"`
}

type joinRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type reconnectRequest struct {
	Token string `json:"token"`
}

type predictRequest struct {
	Type string `json:"type"`
}

type selectRequest struct {
	DieIDs []string `json:"dieIds"`
}

type joinedPayload struct {
	RoomCode  string      `json:"roomCode"`
	PlayerID  string      `json:"playerId"`
	Token     string      `json:"token"`
	GameState *game.State `json:"gameState"`
}

type reconnectedPayload struct {
	RoomCode  string      `json:"roomCode"`
	PlayerID  string      `json:"playerId"`
	GameState *game.State `json:"gameState"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type failedPayload struct {
	Message string `json:"message"`
}

const maxNameLength = 20

func validPlayerName(name string) bool {
	return len(name) >= 1 && len(name) <= maxNameLength
}
