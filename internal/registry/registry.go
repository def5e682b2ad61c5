// Package registry owns the room-code → room-actor map. Creation allocates
// a unique code and spins up the actor; join, reconnect and the idle sweep
// route through here. Per-room rule checks stay inside the actors so
// NAME_TAKEN and ROOM_FULL cannot race.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/r3xsean/devilsdice/internal/engine"
	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/store"
)

const sweepInterval = time.Minute

type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*engine.Room

	games *store.Games
	sink  engine.Sink
	clock engine.Clock
	log   zerolog.Logger
}

func New(games *store.Games, sink engine.Sink, log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*engine.Room),
		games: games,
		sink:  sink,
		clock: engine.NewClock(),
		log:   log,
	}
}

// CreateResult is what the creating client needs to enter its new room.
type CreateResult struct {
	RoomCode string
	PlayerID string
	Token    string
	State    *game.State
}

// CreateRoom allocates a fresh code, starts the room actor and joins the
// creating player as host.
func (r *Registry) CreateRoom(ctx context.Context, sessionID, playerName string, overrides game.ConfigOverrides) (CreateResult, error) {
	cfg := game.DefaultConfig().Apply(overrides)
	if !cfg.Valid() {
		return CreateResult{}, game.ErrInvalidConfig
	}

	room, code := r.allocate(cfg)
	go room.Run()

	joined, err := room.Join(ctx, playerName, sessionID)
	if err != nil {
		room.Close()
		return CreateResult{}, err
	}
	r.log.Info().Str("room", code).Msg("room created")
	return CreateResult{
		RoomCode: code,
		PlayerID: joined.PlayerID,
		Token:    joined.Token,
		State:    joined.State,
	}, nil
}

// allocate reserves an unused room code and registers the actor under it.
func (r *Registry) allocate(cfg game.Config) (*engine.Room, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var code string
	for {
		code = game.NewRoomCode()
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}
	room := engine.NewRoom(engine.Options{
		State:   game.NewState(code, cfg),
		Sink:    r.sink,
		Games:   r.games,
		Clock:   r.clock,
		Log:     r.log,
		OnClose: r.remove,
	})
	r.rooms[code] = room
	return room, code
}

func (r *Registry) remove(code string) {
	r.mu.Lock()
	delete(r.rooms, code)
	r.mu.Unlock()
	r.log.Info().Str("room", code).Msg("room removed")
}

// Lookup finds a live room by code.
func (r *Registry) Lookup(code string) (*engine.Room, error) {
	r.mu.RLock()
	room, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return room, nil
}

// ReconnectResult carries everything the reconnecting client gets back.
type ReconnectResult struct {
	RoomCode string
	PlayerID string
	State    *game.State
}

// Reconnect validates the token against the store, then re-associates the
// session with the player inside the room actor.
func (r *Registry) Reconnect(ctx context.Context, token, sessionID string) (ReconnectResult, error) {
	rec, err := r.games.LookupToken(ctx, token)
	if err != nil {
		return ReconnectResult{}, game.ErrReconnectFailed
	}
	room, err := r.Lookup(rec.RoomCode)
	if err != nil {
		return ReconnectResult{}, err
	}
	st, err := room.Reconnect(ctx, rec.PlayerID, sessionID)
	if err != nil {
		return ReconnectResult{}, err
	}
	return ReconnectResult{RoomCode: rec.RoomCode, PlayerID: rec.PlayerID, State: st}, nil
}

// Run drives the idle sweep until the context ends: abandoned rooms (all
// players long disconnected) and day-old untouched lobbies get closed.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Registry) sweep(ctx context.Context) {
	r.mu.RLock()
	rooms := make([]*engine.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	for _, room := range rooms {
		closed, err := room.CloseIfAbandoned(ctx)
		if err != nil {
			continue
		}
		if closed {
			r.log.Info().Str("room", room.Code()).Msg("swept abandoned room")
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.RLock()
	rooms := make([]*engine.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()
	for _, room := range rooms {
		room.Close()
	}
}

// Count reports how many rooms are live.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
