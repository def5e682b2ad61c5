package registry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/store"
)

type nopSink struct{}

func (nopSink) Broadcast(string, string, any)                  {}
func (nopSink) BroadcastEach(string, string, func(string) any) {}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	games := store.NewGames(store.NewFallback(nil, zerolog.Nop()))
	return New(games, nopSink{}, zerolog.Nop())
}

func TestCreateRoom_HostJoinedAndLookupWorks(t *testing.T) {
	reg := newTestRegistry(t)

	res, err := reg.CreateRoom(context.Background(), "sess-1", "alice", game.ConfigOverrides{})
	require.NoError(t, err)
	assert.True(t, game.ValidRoomCode(res.RoomCode))
	assert.NotEmpty(t, res.PlayerID)
	assert.NotEmpty(t, res.Token)
	require.Len(t, res.State.Players, 1)
	assert.True(t, res.State.Players[0].Host)
	assert.Equal(t, 1, reg.Count())

	room, err := reg.Lookup(res.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, res.RoomCode, room.Code())
}

func TestCreateRoom_RejectsInvalidOverrides(t *testing.T) {
	reg := newTestRegistry(t)

	bad := 99
	_, err := reg.CreateRoom(context.Background(), "sess-1", "alice", game.ConfigOverrides{MaxPlayers: &bad})
	require.ErrorIs(t, err, game.ErrInvalidConfig)
	assert.Equal(t, 0, reg.Count())
}

func TestLookup_UnknownCode(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Lookup("ZZZZZZ")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestJoinThenLeave_LastLeaverRemovesRoom(t *testing.T) {
	reg := newTestRegistry(t)
	res, err := reg.CreateRoom(context.Background(), "sess-1", "alice", game.ConfigOverrides{})
	require.NoError(t, err)

	room, err := reg.Lookup(res.RoomCode)
	require.NoError(t, err)
	joined, err := room.Join(context.Background(), "bob", "sess-2")
	require.NoError(t, err)

	_, err = room.Leave(context.Background(), res.PlayerID)
	require.NoError(t, err)
	left, err := room.Leave(context.Background(), joined.PlayerID)
	require.NoError(t, err)
	assert.True(t, left.RoomDeleted)

	// The actor unregisters itself as it shuts down.
	require.Eventually(t, func() bool { return reg.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, err = reg.Lookup(res.RoomCode)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestReconnect_RoundTripsToken(t *testing.T) {
	reg := newTestRegistry(t)
	res, err := reg.CreateRoom(context.Background(), "sess-1", "alice", game.ConfigOverrides{})
	require.NoError(t, err)

	room, err := reg.Lookup(res.RoomCode)
	require.NoError(t, err)
	room.Disconnected(context.Background(), "sess-1")

	rec, err := reg.Reconnect(context.Background(), res.Token, "sess-9")
	require.NoError(t, err)
	assert.Equal(t, res.RoomCode, rec.RoomCode)
	assert.Equal(t, res.PlayerID, rec.PlayerID)
	require.Len(t, rec.State.Players, 1)
	assert.True(t, rec.State.Players[0].Connected)
}

func TestReconnect_BadToken(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Reconnect(context.Background(), "no-such-token", "sess-1")
	assert.ErrorIs(t, err, game.ErrReconnectFailed)
}
