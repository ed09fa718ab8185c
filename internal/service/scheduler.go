package service

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// roundScheduler runs at most one expiry timer per session. Round expiry is a
// server-driven transition: clients only render countdowns, the scheduler
// fires the canonical close.
type roundScheduler struct {
	clock clockwork.Clock
	fire  func(sessionID string)

	mu     sync.Mutex
	timers map[string]*timerEntry
}

type timerEntry struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

func newRoundScheduler(clock clockwork.Clock, fire func(sessionID string)) *roundScheduler {
	return &roundScheduler{
		clock:  clock,
		fire:   fire,
		timers: make(map[string]*timerEntry),
	}
}

// Schedule arms (or re-arms) the expiry timer for a session. A prior timer
// for the same session is cancelled first, so rescheduling is idempotent.
func (s *roundScheduler) Schedule(sessionID string, at time.Time) {
	s.mu.Lock()
	if existing, ok := s.timers[sessionID]; ok {
		close(existing.cancel)
		stopAndDrainTimer(existing.timer)
	}

	d := at.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	entry := &timerEntry{
		timer:  s.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	s.timers[sessionID] = entry
	s.mu.Unlock()

	log.Debug().
		Str("session_id", sessionID).
		Time("deadline", at).
		Dur("duration", d).
		Msg("round expiry timer armed")

	go func() {
		select {
		case <-entry.timer.Chan():
			s.remove(sessionID, entry)
			s.fire(sessionID)
		case <-entry.cancel:
			stopAndDrainTimer(entry.timer)
		}
	}()
}

// Cancel disarms the session's timer if one is pending.
func (s *roundScheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.timers[sessionID]; ok {
		close(entry.cancel)
		stopAndDrainTimer(entry.timer)
		delete(s.timers, sessionID)
		log.Debug().Str("session_id", sessionID).Msg("round expiry timer cancelled")
	}
}

// remove drops the entry only if it is still the current one; a timer that
// fired after being replaced must not delete its successor.
func (s *roundScheduler) remove(sessionID string, entry *timerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.timers[sessionID]; ok && current == entry {
		delete(s.timers, sessionID)
	}
}

// stopAndDrainTimer stops a timer and drains its channel, per the
// time.Timer.Stop documentation, so no goroutine leaks on cancellation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
