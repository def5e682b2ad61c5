package engine

// ackTracker is the per-room results-acknowledgement set. It lives inside
// the room actor so its mutations are serialized with the game state.
type ackTracker struct {
	acked map[string]bool
}

func newAckTracker() ackTracker {
	return ackTracker{acked: make(map[string]bool)}
}

func (a *ackTracker) reset() {
	a.acked = make(map[string]bool)
}

func (a *ackTracker) has(playerID string) bool {
	return a.acked[playerID]
}

func (a *ackTracker) add(playerID string) {
	a.acked[playerID] = true
}

func (a *ackTracker) empty() bool {
	return len(a.acked) == 0
}

func (a *ackTracker) count(connected []string) int {
	n := 0
	for _, id := range connected {
		if a.acked[id] {
			n++
		}
	}
	return n
}

// outstanding lists connected players that have not acknowledged yet.
func (a *ackTracker) outstanding(connected []string) []string {
	waiting := make([]string, 0, len(connected))
	for _, id := range connected {
		if !a.acked[id] {
			waiting = append(waiting, id)
		}
	}
	return waiting
}

// complete reports whether every currently connected player has
// acknowledged. Disconnected players never block; an empty room never
// completes (the idle sweep handles that case).
func (a *ackTracker) complete(connected []string) bool {
	return len(connected) > 0 && len(a.outstanding(connected)) == 0
}
