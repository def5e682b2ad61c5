package gateway

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Hub maps room codes to the sessions watching them. It is the engine's
// broadcast sink: room actors publish events here without knowing about
// sockets.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{rooms: make(map[string]map[*Session]struct{}), log: log}
}

func (h *Hub) Join(roomCode string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.rooms[roomCode]
	if !ok {
		sessions = make(map[*Session]struct{})
		h.rooms[roomCode] = sessions
	}
	sessions[s] = struct{}{}
}

func (h *Hub) Leave(roomCode string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	delete(sessions, s)
	if len(sessions) == 0 {
		delete(h.rooms, roomCode)
	}
}

func (h *Hub) sessions(roomCode string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.rooms[roomCode]))
	for s := range h.rooms[roomCode] {
		out = append(out, s)
	}
	return out
}

// Broadcast sends the same frame to every session in the room. Marshals
// once.
func (h *Hub) Broadcast(roomCode, event string, payload any) {
	data, err := json.Marshal(Outbound{Event: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal broadcast")
		return
	}
	for _, s := range h.sessions(roomCode) {
		s.sendRaw(data)
	}
}

// BroadcastEach builds a per-viewer payload so hidden dice can be redacted
// per recipient.
func (h *Hub) BroadcastEach(roomCode, event string, build func(viewerID string) any) {
	for _, s := range h.sessions(roomCode) {
		s.Send(event, build(s.PlayerID()))
	}
}
