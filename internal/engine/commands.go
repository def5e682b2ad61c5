package engine

import (
	"context"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/scoring"
)

// Commands are the room actor's mailbox entries. Each carries a buffered
// reply channel so callers can wait without blocking the actor.

type command interface{ isCommand() }

type JoinResult struct {
	PlayerID string
	Token    string
	State    *game.State
}

type joinCmd struct {
	name      string
	sessionID string
	resp      chan joinResp
}

type joinResp struct {
	result JoinResult
	err    error
}

type LeaveResult struct {
	NewHostID   string
	RoomDeleted bool
}

type leaveCmd struct {
	playerID string
	resp     chan leaveResp
}

type leaveResp struct {
	result LeaveResult
	err    error
}

type readyCmd struct {
	playerID string
	ready    bool
	resp     chan error
}

type configCmd struct {
	playerID  string
	overrides game.ConfigOverrides
	resp      chan error
}

type startCmd struct {
	playerID string
	resp     chan error
}

type predictionCmd struct {
	playerID   string
	prediction scoring.Prediction
	resp       chan error
}

type selectCmd struct {
	playerID string
	dieIDs   []string
	resp     chan error
}

type confirmCmd struct {
	playerID string
	resp     chan error
}

type ackCmd struct {
	playerID string
	resp     chan error
}

type disconnectCmd struct {
	sessionID string
}

type reconnectCmd struct {
	playerID  string
	sessionID string
	resp      chan reconnectResp
}

type reconnectResp struct {
	state *game.State
	err   error
}

type snapshotCmd struct {
	resp chan *game.State
}

type abandonCheckCmd struct {
	resp chan bool
}

func (joinCmd) isCommand()         {}
func (leaveCmd) isCommand()        {}
func (readyCmd) isCommand()        {}
func (configCmd) isCommand()       {}
func (startCmd) isCommand()        {}
func (predictionCmd) isCommand()   {}
func (selectCmd) isCommand()       {}
func (confirmCmd) isCommand()      {}
func (ackCmd) isCommand()          {}
func (disconnectCmd) isCommand()   {}
func (reconnectCmd) isCommand()    {}
func (snapshotCmd) isCommand()     {}
func (abandonCheckCmd) isCommand() {}

// post queues a command, failing fast once the room has shut down.
func (r *Room) post(ctx context.Context, c command) error {
	select {
	case r.cmds <- c:
		return nil
	case <-r.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func awaitErr(ctx context.Context, r *Room, resp chan error) error {
	select {
	case err := <-resp:
		return err
	case <-r.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join admits a new player and issues their reconnect token.
func (r *Room) Join(ctx context.Context, name, sessionID string) (JoinResult, error) {
	c := joinCmd{name: name, sessionID: sessionID, resp: make(chan joinResp, 1)}
	if err := r.post(ctx, c); err != nil {
		return JoinResult{}, err
	}
	select {
	case resp := <-c.resp:
		return resp.result, resp.err
	case <-r.done:
		return JoinResult{}, game.ErrRoomNotFound
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

func (r *Room) Leave(ctx context.Context, playerID string) (LeaveResult, error) {
	c := leaveCmd{playerID: playerID, resp: make(chan leaveResp, 1)}
	if err := r.post(ctx, c); err != nil {
		return LeaveResult{}, err
	}
	select {
	case resp := <-c.resp:
		return resp.result, resp.err
	case <-ctx.Done():
		return LeaveResult{}, ctx.Err()
	}
}

func (r *Room) SetReady(ctx context.Context, playerID string, ready bool) error {
	c := readyCmd{playerID: playerID, ready: ready, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) UpdateConfig(ctx context.Context, playerID string, overrides game.ConfigOverrides) error {
	c := configCmd{playerID: playerID, overrides: overrides, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) Start(ctx context.Context, playerID string) error {
	c := startCmd{playerID: playerID, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) SubmitPrediction(ctx context.Context, playerID string, p scoring.Prediction) error {
	c := predictionCmd{playerID: playerID, prediction: p, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) SelectDice(ctx context.Context, playerID string, dieIDs []string) error {
	c := selectCmd{playerID: playerID, dieIDs: dieIDs, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) ConfirmSelection(ctx context.Context, playerID string) error {
	c := confirmCmd{playerID: playerID, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

func (r *Room) Acknowledge(ctx context.Context, playerID string) error {
	c := ackCmd{playerID: playerID, resp: make(chan error, 1)}
	if err := r.post(ctx, c); err != nil {
		return err
	}
	return awaitErr(ctx, r, c.resp)
}

// Disconnected marks the session's player as disconnected. Fire-and-forget;
// a dead room means there is nothing left to mark.
func (r *Room) Disconnected(ctx context.Context, sessionID string) {
	_ = r.post(ctx, disconnectCmd{sessionID: sessionID})
}

// Reconnect re-associates a player with a fresh session and returns the
// full current state for that player's eyes.
func (r *Room) Reconnect(ctx context.Context, playerID, sessionID string) (*game.State, error) {
	c := reconnectCmd{playerID: playerID, sessionID: sessionID, resp: make(chan reconnectResp, 1)}
	if err := r.post(ctx, c); err != nil {
		return nil, err
	}
	select {
	case resp := <-c.resp:
		return resp.state, resp.err
	case <-r.done:
		return nil, game.ErrRoomNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns a deep copy of the room state.
func (r *Room) Snapshot(ctx context.Context) (*game.State, error) {
	c := snapshotCmd{resp: make(chan *game.State, 1)}
	if err := r.post(ctx, c); err != nil {
		return nil, err
	}
	select {
	case st := <-c.resp:
		return st, nil
	case <-r.done:
		return nil, game.ErrRoomNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CloseIfAbandoned shuts the room down when no player is connected and the
// room has been idle past the cutoff. Used by the registry sweep.
func (r *Room) CloseIfAbandoned(ctx context.Context) (bool, error) {
	c := abandonCheckCmd{resp: make(chan bool, 1)}
	if err := r.post(ctx, c); err != nil {
		return false, err
	}
	select {
	case closed := <-c.resp:
		return closed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
