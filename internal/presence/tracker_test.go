package presence

import (
	"context"
	"testing"
)

func TestMinParticipants(t *testing.T) {
	cases := map[int]int{
		1: 1, 2: 3, 3: 3, 4: 5, 5: 5, 6: 7, 7: 7, 8: 9,
	}
	for rounds, want := range cases {
		if got := MinParticipants(rounds); got != want {
			t.Errorf("MinParticipants(%d) = %d, want %d", rounds, got, want)
		}
	}
	// Degenerate input clamps to one round.
	if got := MinParticipants(0); got != 1 {
		t.Errorf("MinParticipants(0) = %d, want 1", got)
	}
}

func TestComputeGate(t *testing.T) {
	tests := []struct {
		name       string
		present    int
		min        int
		alreadyRun bool
		canStart   bool
		reason     string
	}{
		{"enough present", 5, 3, false, true, ""},
		{"exactly at minimum", 3, 3, false, true, ""},
		{"not enough", 2, 3, false, false, ReasonNotEnoughPresent},
		{"already run wins over count", 10, 3, true, false, ReasonAlreadyRun},
		{"already run with too few", 1, 3, true, false, ReasonAlreadyRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ComputeGate(tt.present, tt.min, tt.alreadyRun)
			if g.CanStart != tt.canStart || g.Reason != tt.reason {
				t.Errorf("got %+v, want canStart=%v reason=%q", g, tt.canStart, tt.reason)
			}
		})
	}
}

type fakeStore struct {
	present   map[string]map[string]bool
	attending map[string]map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		present:   make(map[string]map[string]bool),
		attending: make(map[string]map[string]bool),
	}
}

func (f *fakeStore) AddPresent(_ context.Context, eventID, userID string) error {
	if f.present[eventID] == nil {
		f.present[eventID] = make(map[string]bool)
	}
	f.present[eventID][userID] = true
	return nil
}

func (f *fakeStore) RemovePresent(_ context.Context, eventID, userID string) error {
	delete(f.present[eventID], userID)
	return nil
}

func (f *fakeStore) PresentCount(_ context.Context, eventID string) (int, error) {
	return len(f.present[eventID]), nil
}

func (f *fakeStore) ClearPresent(_ context.Context, eventID string) error {
	delete(f.present, eventID)
	return nil
}

func (f *fakeStore) SetAttending(_ context.Context, eventID, userID string, attending bool) error {
	if f.attending[eventID] == nil {
		f.attending[eventID] = make(map[string]bool)
	}
	if attending {
		f.attending[eventID][userID] = true
	} else {
		delete(f.attending[eventID], userID)
	}
	return nil
}

func (f *fakeStore) AttendingCount(_ context.Context, eventID string) (int, error) {
	return len(f.attending[eventID]), nil
}

func (f *fakeStore) ClearAttending(_ context.Context, eventID string) error {
	delete(f.attending, eventID)
	return nil
}

func TestTrackerDeduplicatesByUser(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newFakeStore())

	// The same user connecting twice (reconnect) counts once.
	tr.Connected(ctx, "ev", "u1")
	tr.Connected(ctx, "ev", "u1")
	tr.Connected(ctx, "ev", "u2")

	stats, err := tr.Stats(ctx, "ev")
	if err != nil {
		t.Fatal(err)
	}
	if stats.PresentCount != 2 {
		t.Errorf("present = %d, want 2", stats.PresentCount)
	}

	tr.Disconnected(ctx, "ev", "u1")
	stats, _ = tr.Stats(ctx, "ev")
	if stats.PresentCount != 1 {
		t.Errorf("present after disconnect = %d, want 1", stats.PresentCount)
	}
}

func TestTrackerAttendingIndependentOfPresence(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newFakeStore())

	tr.SetAttending(ctx, "ev", "u1", true)
	tr.SetAttending(ctx, "ev", "u2", true)
	tr.SetAttending(ctx, "ev", "u2", false)
	tr.Connected(ctx, "ev", "u3")

	stats, _ := tr.Stats(ctx, "ev")
	if stats.AttendingCount != 1 {
		t.Errorf("attending = %d, want 1", stats.AttendingCount)
	}
	if stats.PresentCount != 1 {
		t.Errorf("present = %d, want 1", stats.PresentCount)
	}

	if err := tr.Clear(ctx, "ev"); err != nil {
		t.Fatal(err)
	}
	stats, _ = tr.Stats(ctx, "ev")
	if stats.AttendingCount != 0 || stats.PresentCount != 0 {
		t.Errorf("counters after clear = %+v, want zeros", stats)
	}
}
