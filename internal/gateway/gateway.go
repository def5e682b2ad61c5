// Package gateway terminates websocket connections and translates the JSON
// wire protocol into room-actor calls. Rule errors go back to the initiating
// session only; broadcasts flow the other way through the hub.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/registry"
	"github.com/r3xsean/devilsdice/internal/scoring"
)

type Gateway struct {
	registry *registry.Registry
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func New(reg *registry.Registry, hub *Hub, log zerolog.Logger) *Gateway {
	return &Gateway{
		registry: reg,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware in
			// front of the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleWS upgrades the request and runs the session until the socket dies.
func (g *Gateway) HandleWS(ctx *gin.Context) {
	conn, err := g.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		g.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("ws upgrade failed")
		return
	}

	s := newSession(conn, g.log)
	g.log.Debug().Str("session", s.ID()).Msg("session opened")

	go s.writePump()
	s.readPump(g.dispatch)

	g.onDisconnect(s)
	g.log.Debug().Str("session", s.ID()).Msg("session closed")
}

func (g *Gateway) dispatch(s *Session, in Inbound) {
	ctx := context.Background()
	switch in.Event {
	case EvtRoomCreate:
		g.handleCreate(ctx, s, in.Data)
	case EvtRoomJoin:
		g.handleJoin(ctx, s, in.Data)
	case EvtRoomLeave:
		g.handleLeave(ctx, s)
	case EvtRoomReconnect:
		g.handleReconnect(ctx, s, in.Data)
	case EvtGameReady:
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.SetReady(ctx, playerID, true)
		})
	case EvtGameUnready:
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.SetReady(ctx, playerID, false)
		})
	case EvtUpdateConfig:
		var overrides game.ConfigOverrides
		if err := json.Unmarshal(in.Data, &overrides); err != nil {
			g.reject(s)
			return
		}
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.UpdateConfig(ctx, playerID, overrides)
		})
	case EvtGameStart:
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.Start(ctx, playerID)
		})
	case EvtPredict:
		var req predictRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			g.reject(s)
			return
		}
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.SubmitPrediction(ctx, playerID, scoring.Prediction(req.Type))
		})
	case EvtDiceSelect:
		var req selectRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			g.reject(s)
			return
		}
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.SelectDice(ctx, playerID, req.DieIDs)
		})
	case EvtDiceConfirm:
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.ConfirmSelection(ctx, playerID)
		})
	case EvtAckResults:
		g.roomCall(ctx, s, func(r room, playerID string) error {
			return r.Acknowledge(ctx, playerID)
		})
	default:
		g.log.Debug().Str("event", in.Event).Msg("unknown inbound event")
	}
}

// room is the slice of the actor API the per-event handlers need.
type room interface {
	SetReady(ctx context.Context, playerID string, ready bool) error
	UpdateConfig(ctx context.Context, playerID string, overrides game.ConfigOverrides) error
	Start(ctx context.Context, playerID string) error
	SubmitPrediction(ctx context.Context, playerID string, p scoring.Prediction) error
	SelectDice(ctx context.Context, playerID string, dieIDs []string) error
	ConfirmSelection(ctx context.Context, playerID string) error
	Acknowledge(ctx context.Context, playerID string) error
}

func (g *Gateway) handleCreate(ctx context.Context, s *Session, data json.RawMessage) {
	var req createRequest
	if err := json.Unmarshal(data, &req); err != nil || !validPlayerName(req.PlayerName) {
		g.reject(s)
		return
	}
	if id, _ := s.binding(); id != "" {
		g.sendError(s, game.ErrGameInProgress)
		return
	}

	res, err := g.registry.CreateRoom(ctx, s.ID(), req.PlayerName, req.Config)
	if err != nil {
		g.sendError(s, err)
		return
	}
	g.hub.Join(res.RoomCode, s)
	s.bind(res.PlayerID, res.RoomCode)
	s.Send(EvtRoomCreated, joinedPayload{
		RoomCode:  res.RoomCode,
		PlayerID:  res.PlayerID,
		Token:     res.Token,
		GameState: res.State,
	})
}

func (g *Gateway) handleJoin(ctx context.Context, s *Session, data json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil ||
		!validPlayerName(req.PlayerName) || !game.ValidRoomCode(req.RoomCode) {
		g.reject(s)
		return
	}
	if id, _ := s.binding(); id != "" {
		g.sendError(s, game.ErrGameInProgress)
		return
	}

	r, err := g.registry.Lookup(req.RoomCode)
	if err != nil {
		g.sendError(s, err)
		return
	}
	joined, err := r.Join(ctx, req.PlayerName, s.ID())
	if err != nil {
		g.sendError(s, err)
		return
	}
	g.hub.Join(req.RoomCode, s)
	s.bind(joined.PlayerID, req.RoomCode)
	s.Send(EvtRoomJoined, joinedPayload{
		RoomCode:  req.RoomCode,
		PlayerID:  joined.PlayerID,
		Token:     joined.Token,
		GameState: joined.State,
	})
}

func (g *Gateway) handleLeave(ctx context.Context, s *Session) {
	playerID, roomCode := s.binding()
	if playerID == "" {
		return
	}
	g.hub.Leave(roomCode, s)
	s.unbind()
	if r, err := g.registry.Lookup(roomCode); err == nil {
		if _, err := r.Leave(ctx, playerID); err != nil {
			g.log.Debug().Err(err).Str("room", roomCode).Msg("leave after room closed")
		}
	}
}

func (g *Gateway) handleReconnect(ctx context.Context, s *Session, data json.RawMessage) {
	var req reconnectRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Token == "" {
		g.reject(s)
		return
	}

	res, err := g.registry.Reconnect(ctx, req.Token, s.ID())
	if err != nil {
		s.Send(EvtReconnectFailed, failedPayload{Message: "reconnect failed"})
		return
	}
	g.hub.Join(res.RoomCode, s)
	s.bind(res.PlayerID, res.RoomCode)
	s.Send(EvtReconnectSuccess, reconnectedPayload{
		RoomCode:  res.RoomCode,
		PlayerID:  res.PlayerID,
		GameState: res.State,
	})
}

// roomCall resolves the caller's room and player binding, runs the action,
// and routes any rule error back to the caller alone.
func (g *Gateway) roomCall(ctx context.Context, s *Session, fn func(r room, playerID string) error) {
	playerID, roomCode := s.binding()
	if playerID == "" {
		g.sendError(s, game.ErrPlayerNotFound)
		return
	}
	r, err := g.registry.Lookup(roomCode)
	if err != nil {
		g.sendError(s, err)
		return
	}
	if err := fn(r, playerID); err != nil {
		g.sendError(s, err)
	}
}

func (g *Gateway) onDisconnect(s *Session) {
	playerID, roomCode := s.binding()
	if playerID == "" {
		return
	}
	g.hub.Leave(roomCode, s)
	if r, err := g.registry.Lookup(roomCode); err == nil {
		r.Disconnected(context.Background(), s.ID())
	}
}

func (g *Gateway) sendError(s *Session, err error) {
	var ge *game.Error
	if errors.As(err, &ge) {
		s.Send(EvtRoomError, errorPayload{Message: ge.Message, Code: ge.Code})
		return
	}
	g.log.Error().Err(err).Str("session", s.ID()).Msg("internal error on session command")
	s.Send(EvtRoomError, errorPayload{Message: "internal error", Code: "INTERNAL"})
}

// reject answers a malformed payload with a generic validation error.
func (g *Gateway) reject(s *Session) {
	s.Send(EvtRoomError, errorPayload{Message: "invalid request", Code: "INVALID_REQUEST"})
}
