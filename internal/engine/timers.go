package engine

import "time"

type timerKind int

const (
	timerTurn timerKind = iota
	timerPrediction
	timerGrace
	timerAck
)

// ackTimeoutSeconds bounds how long results screens wait for stragglers.
const ackTimeoutSeconds = 30

// predictionGraceSeconds is the pause between the prediction countdown
// hitting zero and the auto-submission, so clients can flash a warning.
const predictionGraceSeconds = 3

type timerEvent struct {
	kind      timerKind
	gen       uint64
	remaining int
	expired   bool
}

// timers owns the per-room countdowns. At most one countdown per kind runs
// at a time. Every start or stop bumps the kind's generation; events
// arriving with a stale generation are discarded by the actor, which makes
// cancellation of a fired-but-undelivered timer safe.
type timers struct {
	clock  Clock
	events chan timerEvent
	gens   map[timerKind]uint64
	stops  map[timerKind]chan struct{}
}

func newTimers(clock Clock) *timers {
	return &timers{
		clock:  clock,
		events: make(chan timerEvent, 64),
		gens:   make(map[timerKind]uint64),
		stops:  make(map[timerKind]chan struct{}),
	}
}

func (t *timers) start(kind timerKind, seconds int) {
	t.stop(kind)
	t.gens[kind]++
	stop := make(chan struct{})
	t.stops[kind] = stop
	go runCountdown(t.clock, kind, t.gens[kind], seconds, t.events, stop)
}

// stop cancels the countdown of a kind; stopping an absent or already-fired
// countdown is a no-op apart from invalidating its generation.
func (t *timers) stop(kind timerKind) {
	if ch, ok := t.stops[kind]; ok {
		close(ch)
		delete(t.stops, kind)
	}
	t.gens[kind]++
}

func (t *timers) stopAll() {
	for _, kind := range []timerKind{timerTurn, timerPrediction, timerGrace, timerAck} {
		t.stop(kind)
	}
}

// live reports whether an event belongs to the kind's current countdown.
func (t *timers) live(ev timerEvent) bool {
	return ev.gen == t.gens[ev.kind]
}

func runCountdown(clock Clock, kind timerKind, gen uint64, seconds int, events chan<- timerEvent, stop <-chan struct{}) {
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			remaining--
			ev := timerEvent{kind: kind, gen: gen, remaining: remaining, expired: remaining <= 0}
			select {
			case events <- ev:
			case <-stop:
				return
			}
			if ev.expired {
				return
			}
		}
	}
}
