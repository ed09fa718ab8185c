package service

import "sync"

// EventLocks serializes every mutation for one event behind a single logical
// writer. Admin actions, joins, and feedback submissions for the same event
// take the same lock, so they apply atomically in arrival order; a stale
// precondition then fails cleanly instead of corrupting state.
type EventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEventLocks() *EventLocks {
	return &EventLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the event's lock and returns its unlock function.
func (l *EventLocks) Lock(eventID string) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
