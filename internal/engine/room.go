// Package engine drives each room as a single-writer actor: one goroutine
// owns the room's game state, timer handles and ack set, consuming a typed
// mailbox of commands plus a channel of timer events. Guarded "always"
// transitions run to fixed point after every applied event, then the actor
// emits its broadcasts and persists the state. Rule violations are returned
// to the caller only and never mutate state.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/store"
)

// abandonedAfter is how long a fully disconnected room survives before the
// registry sweep may close it.
const abandonedAfter = 10 * time.Minute

// lobbyIdleAfter closes lobby rooms nobody has touched in a day.
const lobbyIdleAfter = 24 * time.Hour

type Room struct {
	code  string
	state *game.State

	cmds   chan command
	quit   chan struct{}
	done   chan struct{}
	timers *timers
	acks   ackTracker

	rng   *rand.Rand
	games *store.Games
	sink  Sink
	log   zerolog.Logger

	onClose      func(code string)
	closing      bool
	lastActivity time.Time
}

type Options struct {
	State   *game.State
	Sink    Sink
	Games   *store.Games
	Clock   Clock
	Rng     *rand.Rand
	Log     zerolog.Logger
	OnClose func(code string)
}

func NewRoom(opts Options) *Room {
	clock := opts.Clock
	if clock == nil {
		clock = NewClock()
	}
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Room{
		code:         opts.State.RoomCode,
		state:        opts.State,
		cmds:         make(chan command, 64),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		timers:       newTimers(clock),
		acks:         newAckTracker(),
		rng:          rng,
		games:        opts.Games,
		sink:         opts.Sink,
		log:          opts.Log.With().Str("room", opts.State.RoomCode).Logger(),
		onClose:      opts.OnClose,
		lastActivity: time.Now(),
	}
}

func (r *Room) Code() string { return r.code }

// Run is the actor loop. It exits when the room empties, is abandoned, or
// Close is called.
func (r *Room) Run() {
	defer r.shutdown()
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.cmds:
			r.handle(cmd)
		case ev := <-r.timers.events:
			r.handleTimer(ev)
		}
		if r.closing {
			return
		}
	}
}

// Close stops the actor from outside; idempotent.
func (r *Room) Close() {
	select {
	case <-r.done:
	case r.quit <- struct{}{}:
	}
}

func (r *Room) shutdown() {
	r.timers.stopAll()
	close(r.done)
	if r.onClose != nil {
		r.onClose(r.code)
	}
	r.log.Info().Msg("room closed")
}

func (r *Room) handle(cmd command) {
	r.lastActivity = time.Now()
	switch c := cmd.(type) {
	case joinCmd:
		c.resp <- r.handleJoin(c)
	case leaveCmd:
		c.resp <- r.handleLeave(c)
	case readyCmd:
		c.resp <- r.handleReady(c)
	case configCmd:
		c.resp <- r.handleConfig(c)
	case startCmd:
		c.resp <- r.handleStart(c)
	case predictionCmd:
		c.resp <- r.handlePrediction(c)
	case selectCmd:
		c.resp <- r.handleSelect(c)
	case confirmCmd:
		c.resp <- r.handleConfirm(c)
	case ackCmd:
		c.resp <- r.handleAck(c)
	case disconnectCmd:
		r.handleDisconnect(c)
	case reconnectCmd:
		c.resp <- r.handleReconnect(c)
	case snapshotCmd:
		c.resp <- r.state.Clone()
		return // read-only, skip persist
	case abandonCheckCmd:
		c.resp <- r.handleAbandonCheck()
	}
	r.persist()
}

func (r *Room) handleJoin(c joinCmd) joinResp {
	player, err := r.state.AddPlayer(c.name, c.sessionID)
	if err != nil {
		return joinResp{err: err}
	}
	token, err := r.issueToken(player.ID)
	if err != nil {
		// Roll the admission back; a player without a reconnect token
		// would be unable to survive any disconnect.
		r.state.RemovePlayer(player.ID)
		return joinResp{err: err}
	}
	r.broadcastEach(EvtPlayerJoined, func(viewerID string) any {
		return PlayerJoinedPayload{Player: player, GameState: r.state.Redacted(viewerID)}
	})
	return joinResp{result: JoinResult{
		PlayerID: player.ID,
		Token:    token,
		State:    r.state.Redacted(player.ID),
	}}
}

func (r *Room) handleLeave(c leaveCmd) leaveResp {
	wasTurnHolder := r.state.Phase == game.PhaseSetSelection &&
		c.playerID == r.state.CurrentTurnPlayerID()
	newHostID, empty, err := r.state.RemovePlayer(c.playerID)
	if err != nil {
		return leaveResp{err: err}
	}
	if empty {
		r.closing = true
		r.deleteState()
		return leaveResp{result: LeaveResult{RoomDeleted: true}}
	}
	r.sink.Broadcast(r.code, EvtPlayerLeft, PlayerIDPayload{PlayerID: c.playerID})
	if newHostID != "" {
		r.sink.Broadcast(r.code, EvtHostChanged, HostChangedPayload{NewHostID: newHostID})
	}
	if wasTurnHolder {
		// The turn passes to whoever now sits at the same index.
		r.startTurn()
	}
	// A departure can satisfy a waiting guard (everyone left has already
	// predicted or confirmed) or complete the ack quorum.
	r.runAlways()
	r.checkAckCompletion()
	return leaveResp{result: LeaveResult{NewHostID: newHostID}}
}

func (r *Room) handleReady(c readyCmd) error {
	if r.state.Phase != game.PhaseLobby {
		return game.ErrInvalidPhase
	}
	player := r.state.PlayerByID(c.playerID)
	if player == nil {
		return game.ErrPlayerNotFound
	}
	player.Ready = c.ready
	r.broadcastState(EvtStateUpdate)
	return nil
}

func (r *Room) handleConfig(c configCmd) error {
	if r.state.Phase != game.PhaseLobby {
		return game.ErrInvalidPhase
	}
	if c.playerID != r.state.HostID {
		return game.ErrNotHost
	}
	merged := r.state.Config.Apply(c.overrides)
	if !merged.Valid() || merged.MaxPlayers < len(r.state.Players) {
		return game.ErrInvalidConfig
	}
	r.state.Config = merged
	r.sink.Broadcast(r.code, EvtConfigUpdated, ConfigUpdatedPayload{Config: merged})
	return nil
}

func (r *Room) handleDisconnect(c disconnectCmd) {
	player := r.state.PlayerBySession(c.sessionID)
	if player == nil || !player.Connected {
		return
	}
	player.Connected = false
	player.SessionID = ""
	r.sink.Broadcast(r.code, EvtPlayerDisconnect, PlayerIDPayload{PlayerID: player.ID})
	// Disconnected players must not hold up a results screen.
	r.checkAckCompletion()
}

func (r *Room) handleReconnect(c reconnectCmd) reconnectResp {
	player := r.state.PlayerByID(c.playerID)
	if player == nil {
		return reconnectResp{err: game.ErrPlayerNotFound}
	}
	player.SessionID = c.sessionID
	player.Connected = true
	r.sink.Broadcast(r.code, EvtPlayerReconnect, PlayerIDPayload{PlayerID: player.ID})
	return reconnectResp{state: r.state.Redacted(player.ID)}
}

func (r *Room) handleAbandonCheck() bool {
	if len(r.state.ConnectedPlayerIDs()) == 0 && time.Since(r.lastActivity) > abandonedAfter {
		r.closing = true
		return true
	}
	if r.state.Phase == game.PhaseLobby && time.Since(r.lastActivity) > lobbyIdleAfter {
		r.closing = true
		return true
	}
	return false
}

func (r *Room) issueToken(playerID string) (string, error) {
	if r.games == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.games.IssueToken(ctx, playerID, r.code)
}

func (r *Room) persist() {
	if r.games == nil || r.closing {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.games.SaveState(ctx, r.state); err != nil {
		r.log.Warn().Err(err).Msg("persisting game state failed")
	}
}

func (r *Room) deleteState() {
	if r.games == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.games.DeleteState(ctx, r.code); err != nil {
		r.log.Warn().Err(err).Msg("deleting game state failed")
	}
}

func (r *Room) broadcastState(event string) {
	r.broadcastEach(event, func(viewerID string) any {
		return StatePayload{Phase: r.state.Phase, GameState: r.state.Redacted(viewerID)}
	})
}

func (r *Room) broadcastEach(event string, build func(viewerID string) any) {
	r.sink.BroadcastEach(r.code, event, build)
}

// failRoom handles transition-invariant violations: these are programmer
// errors, so the room is logged and torn down rather than surfaced as a
// user-visible code.
func (r *Room) failRoom(where string, err error) {
	r.log.Error().Err(err).Str("where", where).Str("phase", string(r.state.Phase)).Msg("room invariant violated")
	r.closing = true
	r.deleteState()
}
