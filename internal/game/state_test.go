package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayer_FirstIsHost(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	host, err := st.AddPlayer("alice", "sess-1")
	require.NoError(t, err)
	assert.True(t, host.Host)
	assert.Equal(t, host.ID, st.HostID)

	second, err := st.AddPlayer("bob", "sess-2")
	require.NoError(t, err)
	assert.False(t, second.Host)
}

func TestAddPlayer_NameTakenCaseInsensitive(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	_, err := st.AddPlayer("Alice", "sess-1")
	require.NoError(t, err)

	_, err = st.AddPlayer("ALICE", "sess-2")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestAddPlayer_RoomFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	st := NewState("ABCDEF", cfg)
	_, err := st.AddPlayer("a", "s1")
	require.NoError(t, err)
	_, err = st.AddPlayer("b", "s2")
	require.NoError(t, err)

	_, err = st.AddPlayer("c", "s3")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestAddPlayer_RejectedOutsideLobby(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	st.Phase = PhasePrediction
	_, err := st.AddPlayer("late", "s9")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestRemovePlayer_ReassignsHost(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	host, _ := st.AddPlayer("host", "s1")
	next, _ := st.AddPlayer("next", "s2")

	newHost, empty, err := st.RemovePlayer(host.ID)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, next.ID, newHost)
	assert.True(t, next.Host)
	assert.Equal(t, next.ID, st.HostID)
}

func TestRemovePlayer_LastLeavesRoomEmpty(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	p, _ := st.AddPlayer("only", "s1")

	_, empty, err := st.RemovePlayer(p.ID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestRemovePlayer_NotFound(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	_, _, err := st.RemovePlayer("missing")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRemovePlayer_RepairsTurnOrder(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	a, _ := st.AddPlayer("a", "s1")
	b, _ := st.AddPlayer("b", "s2")
	c, _ := st.AddPlayer("c", "s3")
	st.TurnOrder = []string{a.ID, b.ID, c.ID}
	st.CurrentTurnIndex = 2

	_, _, err := st.RemovePlayer(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, st.TurnOrder)
	assert.Equal(t, 1, st.CurrentTurnIndex)
	assert.Equal(t, c.ID, st.CurrentTurnPlayerID())
}

func TestCanStart(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	a, _ := st.AddPlayer("a", "s1")
	assert.False(t, st.CanStart(), "one player is not enough")

	b, _ := st.AddPlayer("b", "s2")
	assert.False(t, st.CanStart(), "players not ready")

	a.Ready = true
	b.Ready = true
	assert.True(t, st.CanStart())

	st.Phase = PhasePrediction
	assert.False(t, st.CanStart())
}

func TestFinalStandings_SharedPlacementOnTies(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	a, _ := st.AddPlayer("a", "s1")
	b, _ := st.AddPlayer("b", "s2")
	c, _ := st.AddPlayer("c", "s3")
	a.Score = 10
	b.Score = 20
	c.Score = 20

	standings := st.FinalStandings()
	require.Len(t, standings, 3)
	assert.Equal(t, b.ID, standings[0].PlayerID)
	assert.Equal(t, 1, standings[0].Placement)
	assert.Equal(t, 1, standings[1].Placement)
	assert.Equal(t, a.ID, standings[2].PlayerID)
	assert.Equal(t, 3, standings[2].Placement)
}

func TestRollRoundDice_Composition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dice := RollRoundDice(rng)
	require.Len(t, dice, 11)

	colors := map[DieColor]int{}
	for _, d := range dice {
		colors[d.Color]++
		assert.GreaterOrEqual(t, d.Value, 1)
		assert.LessOrEqual(t, d.Value, 6)
		assert.False(t, d.Spent)
		if d.Color == White {
			assert.True(t, d.Revealed)
		} else {
			assert.False(t, d.Revealed)
		}
	}
	assert.Equal(t, 9, colors[White])
	assert.Equal(t, 1, colors[Red])
	assert.Equal(t, 1, colors[Blue])

	// Whites lead the pool so timeout auto-selection picks them first.
	for i := 0; i < 9; i++ {
		assert.Equal(t, White, dice[i].Color)
	}
}

func TestRedacted_HidesOpponentHiddenDice(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	st := NewState("ABCDEF", DefaultConfig())
	me, _ := st.AddPlayer("me", "s1")
	them, _ := st.AddPlayer("them", "s2")
	me.Dice = RollRoundDice(rng)
	them.Dice = RollRoundDice(rng)

	view := st.Redacted(me.ID)

	mine := view.PlayerByID(me.ID)
	for _, d := range mine.Dice {
		assert.NotZero(t, d.Value, "own dice stay visible")
	}
	theirs := view.PlayerByID(them.ID)
	for _, d := range theirs.Dice {
		if d.Revealed {
			assert.NotZero(t, d.Value)
		} else {
			assert.Zero(t, d.Value)
		}
	}

	// The original state is untouched.
	for _, d := range st.PlayerByID(them.ID).Dice {
		assert.NotZero(t, d.Value)
	}
}

func TestClone_Isolated(t *testing.T) {
	st := NewState("ABCDEF", DefaultConfig())
	p, _ := st.AddPlayer("a", "s1")
	st.Selections[p.ID] = &Selection{DieIDs: []string{"d1"}}

	cp := st.Clone()
	cp.PlayerByID(p.ID).Score = 99
	cp.Selections[p.ID].Confirmed = true

	assert.Zero(t, st.PlayerByID(p.ID).Score)
	assert.False(t, st.Selections[p.ID].Confirmed)
}

func TestRoomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewRoomCode()
		require.Len(t, code, 6)
		assert.True(t, ValidRoomCode(code), "code %q", code)
		for _, c := range code {
			assert.NotContains(t, "0O1IL", string(c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should rarely collide")

	assert.False(t, ValidRoomCode("abc234"))
	assert.False(t, ValidRoomCode("ABC23"))
	assert.False(t, ValidRoomCode("ABC10Z"))
}

func TestConfigValidAndApply(t *testing.T) {
	assert.True(t, DefaultConfig().Valid())

	bad := Config{MaxPlayers: 7, TotalRounds: 5, TurnTimerSeconds: 30}
	assert.False(t, bad.Valid())
	bad = Config{MaxPlayers: 4, TotalRounds: 2, TurnTimerSeconds: 30}
	assert.False(t, bad.Valid())
	bad = Config{MaxPlayers: 4, TotalRounds: 5, TurnTimerSeconds: 61}
	assert.False(t, bad.Valid())

	rounds := 8
	merged := DefaultConfig().Apply(ConfigOverrides{TotalRounds: &rounds})
	assert.Equal(t, 8, merged.TotalRounds)
	assert.Equal(t, DefaultConfig().MaxPlayers, merged.MaxPlayers)
}
