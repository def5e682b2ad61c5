package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	outboxSize    = 256

	// Frames past the limit are dropped without a reply.
	framesPerSecond = 10
	frameBurst      = 20
)

// Session is one websocket connection. The write pump is the only goroutine
// touching the socket's write side; everything else goes through the outbox.
type Session struct {
	id      string
	conn    *websocket.Conn
	outbox  chan []byte
	limiter *rate.Limiter
	log     zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}

	mu       sync.Mutex
	playerID string
	roomCode string
}

func newSession(conn *websocket.Conn, log zerolog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:      id,
		conn:    conn,
		outbox:  make(chan []byte, outboxSize),
		limiter: rate.NewLimiter(framesPerSecond, frameBurst),
		log:     log.With().Str("session", id).Logger(),
		closed:  make(chan struct{}),
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	return s
}

func (s *Session) ID() string { return s.id }

// bind records which player this session speaks for.
func (s *Session) bind(playerID, roomCode string) {
	s.mu.Lock()
	s.playerID = playerID
	s.roomCode = roomCode
	s.mu.Unlock()
}

func (s *Session) unbind() {
	s.bind("", "")
}

func (s *Session) binding() (playerID, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID, s.roomCode
}

func (s *Session) PlayerID() string {
	id, _ := s.binding()
	return id
}

// Send marshals and queues one frame. A full outbox means the client has
// stopped draining; the session is closed rather than blocking a broadcast.
func (s *Session) Send(event string, payload any) {
	data, err := json.Marshal(Outbound{Event: event, Data: payload})
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("marshal outbound")
		return
	}
	s.sendRaw(data)
}

func (s *Session) sendRaw(data []byte) {
	select {
	case s.outbox <- data:
	case <-s.closed:
	default:
		s.log.Warn().Msg("outbox full, dropping session")
		s.close()
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// writePump serializes socket writes and keeps the connection alive with
// periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case data := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}

// readPump decodes inbound frames and hands them to the dispatcher. Returns
// when the socket dies.
func (s *Session) readPump(dispatch func(s *Session, in Inbound)) {
	defer s.close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		if !s.limiter.Allow() {
			continue
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
			continue
		}
		dispatch(s, in)
	}
}
