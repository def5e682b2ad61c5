package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/scoring"
)

type sinkEvent struct {
	room    string
	event   string
	payload any
}

// fakeSink records everything the actor emits. BroadcastEach is captured
// through the neutral observer view so payload assertions stay simple.
type fakeSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (s *fakeSink) Broadcast(room, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sinkEvent{room: room, event: event, payload: payload})
}

func (s *fakeSink) BroadcastEach(room, event string, build func(viewerID string) any) {
	s.Broadcast(room, event, build(""))
}

func (s *fakeSink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (s *fakeSink) last(event string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].event == event {
			return s.events[i].payload, true
		}
	}
	return nil, false
}

// manualClock hands out buffered tickers the test advances by hand; the
// actor's timers only ever fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time, 256)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Tick advances every ticker ever created by n seconds. Stale tickers have
// no reader but their buffers absorb the sends.
func (c *manualClock) Tick(n int) {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()
	for i := 0; i < n; i++ {
		for _, t := range tickers {
			t.ch <- time.Now()
		}
	}
}

type testRoom struct {
	room    *Room
	sink    *fakeSink
	clock   *manualClock
	players []string // player ids in join order
}

// newTestRoom builds a lobby with n joined players on a deterministic rng
// and a manual clock, and starts the actor.
func newTestRoom(t *testing.T, n int, mutate func(cfg *game.Config)) *testRoom {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.MaxPlayers = 6
	if mutate != nil {
		mutate(&cfg)
	}
	require.True(t, cfg.Valid())

	sink := &fakeSink{}
	clock := &manualClock{}
	room := NewRoom(Options{
		State: game.NewState(game.NewRoomCode(), cfg),
		Sink:  sink,
		Clock: clock,
		Rng:   rand.New(rand.NewSource(42)),
		Log:   zerolog.Nop(),
	})
	go room.Run()
	t.Cleanup(room.Close)

	tr := &testRoom{room: room, sink: sink, clock: clock}
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	for i := 0; i < n; i++ {
		res, err := room.Join(context.Background(), names[i], "sess-"+names[i])
		require.NoError(t, err)
		tr.players = append(tr.players, res.PlayerID)
	}
	return tr
}

func (tr *testRoom) snapshot(t *testing.T) *game.State {
	t.Helper()
	st, err := tr.room.Snapshot(context.Background())
	require.NoError(t, err)
	return st
}

func (tr *testRoom) readyAll(t *testing.T) {
	t.Helper()
	for _, id := range tr.players {
		require.NoError(t, tr.room.SetReady(context.Background(), id, true))
	}
}

func (tr *testRoom) start(t *testing.T) {
	t.Helper()
	tr.readyAll(t)
	require.NoError(t, tr.room.Start(context.Background(), tr.players[0]))
}

func (tr *testRoom) predictAll(t *testing.T, p scoring.Prediction) {
	t.Helper()
	for _, id := range tr.players {
		require.NoError(t, tr.room.SubmitPrediction(context.Background(), id, p))
	}
}

// playSet walks the turn order: each holder selects their first 3 unspent
// dice and confirms.
func (tr *testRoom) playSet(t *testing.T) {
	t.Helper()
	for range tr.players {
		st := tr.snapshot(t)
		require.Equal(t, game.PhaseSetSelection, st.Phase)
		holderID := st.CurrentTurnPlayerID()
		require.NotEmpty(t, holderID)
		holder := st.PlayerByID(holderID)
		unspent := holder.UnspentDieIDs()
		require.GreaterOrEqual(t, len(unspent), 3)
		require.NoError(t, tr.room.SelectDice(context.Background(), holderID, unspent[:3]))
		require.NoError(t, tr.room.ConfirmSelection(context.Background(), holderID))
	}
}

func (tr *testRoom) ackAll(t *testing.T) {
	t.Helper()
	for _, id := range tr.players {
		require.NoError(t, tr.room.Acknowledge(context.Background(), id))
	}
}
