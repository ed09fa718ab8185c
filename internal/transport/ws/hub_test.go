package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"velvethour/internal/model"
	"velvethour/internal/presence"
)

type memStore struct {
	mu        sync.Mutex
	present   map[string]map[string]bool
	attending map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		present:   make(map[string]map[string]bool),
		attending: make(map[string]map[string]bool),
	}
}

func (s *memStore) bucket(m map[string]map[string]bool, eventID string) map[string]bool {
	b, ok := m[eventID]
	if !ok {
		b = make(map[string]bool)
		m[eventID] = b
	}
	return b
}

func (s *memStore) AddPresent(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(s.present, eventID)[userID] = true
	return nil
}

func (s *memStore) RemovePresent(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bucket(s.present, eventID), userID)
	return nil
}

func (s *memStore) PresentCount(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.present[eventID]), nil
}

func (s *memStore) ClearPresent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.present, eventID)
	return nil
}

func (s *memStore) SetAttending(_ context.Context, eventID, userID string, attending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attending {
		s.bucket(s.attending, eventID)[userID] = true
	} else {
		delete(s.bucket(s.attending, eventID), userID)
	}
	return nil
}

func (s *memStore) AttendingCount(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attending[eventID]), nil
}

func (s *memStore) ClearAttending(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attending, eventID)
	return nil
}

func newTestHub(t *testing.T) (*Hub, *presence.Tracker) {
	t.Helper()
	tracker := presence.NewTracker(newMemStore())
	hub := NewHub(tracker, 0) // sweeper off, tests control lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)
	return hub, tracker
}

func newTestClient(eventID, userID string) *Client {
	return &Client{
		EventID: eventID,
		UserID:  userID,
		Send:    make(chan []byte, 16),
	}
}

func waitPresent(t *testing.T, tracker *presence.Tracker, eventID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := tracker.Stats(context.Background(), eventID)
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats.PresentCount == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("present count never reached %d", want)
}

func recvEnvelope(t *testing.T, c *Client) *model.Envelope {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var e model.Envelope
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		return &e
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return nil
}

// drainUntil skips presence noise until a message of the wanted type shows up.
func drainUntil(t *testing.T, c *Client, want model.MessageType) *model.Envelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		e := recvEnvelope(t, c)
		if e.Type == want {
			return e
		}
	}
	t.Fatalf("never received %q", want)
	return nil
}

func TestHubBroadcastToEvent(t *testing.T) {
	hub, tracker := newTestHub(t)

	a := newTestClient("ev1", "u1")
	b := newTestClient("ev1", "u2")
	other := newTestClient("ev2", "u3")
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)
	waitPresent(t, tracker, "ev1", 2)

	hub.BroadcastToEvent("ev1", model.MsgRoundStarted, map[string]int{"round": 1})

	for _, c := range []*Client{a, b} {
		e := drainUntil(t, c, model.MsgRoundStarted)
		if e.EventID != "ev1" {
			t.Fatalf("EventID = %q", e.EventID)
		}
		var payload map[string]int
		if err := json.Unmarshal(e.Data, &payload); err != nil || payload["round"] != 1 {
			t.Fatalf("payload = %s (%v)", e.Data, err)
		}
	}

	// The other event's client must only ever see its own presence updates.
	select {
	case data := <-other.Send:
		var e model.Envelope
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if e.Type == model.MsgRoundStarted {
			t.Fatal("round_started leaked across events")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastToUser(t *testing.T) {
	hub, tracker := newTestHub(t)

	a := newTestClient("ev1", "u1")
	b := newTestClient("ev1", "u2")
	hub.Register(a)
	hub.Register(b)
	waitPresent(t, tracker, "ev1", 2)

	hub.BroadcastToUser("ev1", "u1", model.MsgMatchConfirmed, nil)
	if e := drainUntil(t, a, model.MsgMatchConfirmed); e == nil {
		t.Fatal("target missed the message")
	}

	select {
	case data := <-b.Send:
		var e model.Envelope
		json.Unmarshal(data, &e)
		if e.Type == model.MsgMatchConfirmed {
			t.Fatal("targeted message leaked to another user")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReconnectReplaces(t *testing.T) {
	hub, tracker := newTestHub(t)

	first := newTestClient("ev1", "u1")
	hub.Register(first)
	waitPresent(t, tracker, "ev1", 1)

	second := newTestClient("ev1", "u1")
	hub.Register(second)

	// The replaced connection's channel closes; the user stays present.
	deadline := time.Now().Add(2 * time.Second)
	closed := false
	for time.Now().Before(deadline) && !closed {
		select {
		case _, ok := <-first.Send:
			if !ok {
				closed = true
			}
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !closed {
		t.Fatal("old connection was not closed on reconnect")
	}
	waitPresent(t, tracker, "ev1", 1)

	hub.BroadcastToEvent("ev1", model.MsgRoundStarted, nil)
	drainUntil(t, second, model.MsgRoundStarted)

	// The stale connection's own unregister must not evict the new one.
	hub.Unregister(first)
	time.Sleep(20 * time.Millisecond)
	waitPresent(t, tracker, "ev1", 1)
}

func TestHubUnregisterUpdatesPresence(t *testing.T) {
	hub, tracker := newTestHub(t)

	a := newTestClient("ev1", "u1")
	b := newTestClient("ev1", "u2")
	hub.Register(a)
	hub.Register(b)
	waitPresent(t, tracker, "ev1", 2)

	hub.Unregister(a)
	waitPresent(t, tracker, "ev1", 1)

	// Remaining clients hear who left, then the new presence count.
	left := drainUntil(t, b, model.MsgParticipantLeft)
	var departed model.ParticipantLeft
	if err := json.Unmarshal(left.Data, &departed); err != nil {
		t.Fatalf("bad departure payload: %v", err)
	}
	if departed.UserID != "u1" {
		t.Fatalf("departed user = %q, want u1", departed.UserID)
	}

	e := drainUntil(t, b, model.MsgPresenceUpdate)
	var update model.PresenceUpdate
	if err := json.Unmarshal(e.Data, &update); err != nil {
		t.Fatalf("bad presence payload: %v", err)
	}
	if update.PresentCount != 1 {
		t.Fatalf("PresentCount = %d, want 1", update.PresentCount)
	}
}

func TestHubForceDisconnect(t *testing.T) {
	hub, tracker := newTestHub(t)

	a := newTestClient("ev1", "u1")
	b := newTestClient("ev1", "u2")
	hub.Register(a)
	hub.Register(b)
	waitPresent(t, tracker, "ev1", 2)

	hub.ForceDisconnect("ev1", "")

	for _, c := range []*Client{a, b} {
		e := drainUntil(t, c, model.MsgAdminDisconnect)
		if e == nil {
			t.Fatal("missing admin_disconnect")
		}
	}
	waitPresent(t, tracker, "ev1", 0)
}
