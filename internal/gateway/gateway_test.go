package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3xsean/devilsdice/internal/engine"
	"github.com/r3xsean/devilsdice/internal/game"
	"github.com/r3xsean/devilsdice/internal/registry"
	"github.com/r3xsean/devilsdice/internal/store"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	games := store.NewGames(store.NewFallback(nil, log))
	hub := NewHub(log)
	reg := registry.New(games, hub, log)
	gw := New(reg, hub, log)

	router := gin.New()
	router.GET("/ws", gw.HandleWS)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

type client struct {
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{conn: conn}
}

func (c *client) send(t *testing.T, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, c.conn.WriteJSON(Inbound{Event: event, Data: raw}))
}

// expect reads frames until the wanted event arrives, skipping everything
// else.
func (c *client) expect(t *testing.T, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.conn.SetReadDeadline(deadline)
		var out struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := c.conn.ReadJSON(&out); err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		if out.Event == event {
			return out.Data
		}
	}
	t.Fatalf("timed out waiting for %q", event)
	return nil
}

func (c *client) create(t *testing.T, name string) joinedPayload {
	t.Helper()
	c.send(t, EvtRoomCreate, createRequest{PlayerName: name})
	var created joinedPayload
	require.NoError(t, json.Unmarshal(c.expect(t, EvtRoomCreated), &created))
	return created
}

func (c *client) join(t *testing.T, code, name string) joinedPayload {
	t.Helper()
	c.send(t, EvtRoomJoin, joinRequest{RoomCode: code, PlayerName: name})
	var joined joinedPayload
	require.NoError(t, json.Unmarshal(c.expect(t, EvtRoomJoined), &joined))
	return joined
}

func TestCreateAndJoin(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	created := a.create(t, "alice")
	assert.True(t, game.ValidRoomCode(created.RoomCode))
	assert.NotEmpty(t, created.Token)
	require.NotNil(t, created.GameState)
	assert.Equal(t, game.PhaseLobby, created.GameState.Phase)

	b := dial(t, url)
	joined := b.join(t, created.RoomCode, "bob")
	assert.Len(t, joined.GameState.Players, 2)

	// The existing member hears about the newcomer.
	var evt engine.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(a.expect(t, engine.EvtPlayerJoined), &evt))
	assert.Equal(t, joined.PlayerID, evt.Player.ID)
}

func TestJoin_UnknownRoom(t *testing.T) {
	url := newTestServer(t)
	c := dial(t, url)
	c.send(t, EvtRoomJoin, joinRequest{RoomCode: "ZZZZZZ", PlayerName: "bob"})

	var e errorPayload
	require.NoError(t, json.Unmarshal(c.expect(t, EvtRoomError), &e))
	assert.Equal(t, "ROOM_NOT_FOUND", e.Code)
}

func TestJoin_MalformedPayloadRejected(t *testing.T) {
	url := newTestServer(t)
	c := dial(t, url)
	c.send(t, EvtRoomJoin, joinRequest{RoomCode: "short", PlayerName: ""})

	var e errorPayload
	require.NoError(t, json.Unmarshal(c.expect(t, EvtRoomError), &e))
	assert.Equal(t, "INVALID_REQUEST", e.Code)
}

func TestRuleError_GoesToInitiatorOnly(t *testing.T) {
	url := newTestServer(t)
	a := dial(t, url)
	created := a.create(t, "alice")
	b := dial(t, url)
	b.join(t, created.RoomCode, "bob")

	// bob is not host
	b.send(t, EvtGameStart, struct{}{})
	var e errorPayload
	require.NoError(t, json.Unmarshal(b.expect(t, EvtRoomError), &e))
	assert.Equal(t, "NOT_HOST", e.Code)
}

func TestStart_BroadcastsInitialRoll(t *testing.T) {
	url := newTestServer(t)
	a := dial(t, url)
	created := a.create(t, "alice")
	b := dial(t, url)
	b.join(t, created.RoomCode, "bob")

	a.send(t, EvtGameReady, struct{}{})
	b.send(t, EvtGameReady, struct{}{})

	// Start is only legal once both readiness updates have been applied.
	for {
		var st engine.StatePayload
		require.NoError(t, json.Unmarshal(a.expect(t, engine.EvtStateUpdate), &st))
		ready := 0
		for _, p := range st.GameState.Players {
			if p.Ready {
				ready++
			}
		}
		if ready == 2 {
			break
		}
	}
	a.send(t, EvtGameStart, struct{}{})

	var roll engine.InitialRollPayload
	require.NoError(t, json.Unmarshal(b.expect(t, engine.EvtInitialRoll), &roll))
	assert.Len(t, roll.Results, 2)
	assert.Len(t, roll.TurnOrder, 2)
}

func TestReconnect_Flow(t *testing.T) {
	url := newTestServer(t)
	a := dial(t, url)
	created := a.create(t, "alice")
	a.conn.Close()

	c := dial(t, url)
	c.send(t, EvtRoomReconnect, reconnectRequest{Token: created.Token})
	var rec reconnectedPayload
	require.NoError(t, json.Unmarshal(c.expect(t, EvtReconnectSuccess), &rec))
	assert.Equal(t, created.PlayerID, rec.PlayerID)
	assert.Equal(t, created.RoomCode, rec.RoomCode)
	require.NotNil(t, rec.GameState)
}

func TestReconnect_BadToken(t *testing.T) {
	url := newTestServer(t)
	c := dial(t, url)
	c.send(t, EvtRoomReconnect, reconnectRequest{Token: "bogus"})
	c.expect(t, EvtReconnectFailed)
}

func TestHub_BroadcastEachRedactsPerViewer(t *testing.T) {
	log := zerolog.Nop()
	hub := NewHub(log)
	s := &Session{outbox: make(chan []byte, 4), closed: make(chan struct{}), log: log}
	s.bind("p1", "ROOM01")
	hub.Join("ROOM01", s)

	hub.BroadcastEach("ROOM01", "test", func(viewerID string) any {
		return map[string]string{"viewer": viewerID}
	})

	select {
	case data := <-s.outbox:
		assert.Contains(t, string(data), `"viewer":"p1"`)
	default:
		t.Fatal("no frame queued")
	}
}
