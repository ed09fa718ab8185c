package presence

import "context"

// Store holds the derived per-event counters. The redis implementation lives
// in internal/cache; tests use an in-memory fake.
type Store interface {
	AddPresent(ctx context.Context, eventID, userID string) error
	RemovePresent(ctx context.Context, eventID, userID string) error
	PresentCount(ctx context.Context, eventID string) (int, error)
	ClearPresent(ctx context.Context, eventID string) error

	SetAttending(ctx context.Context, eventID, userID string, attending bool) error
	AttendingCount(ctx context.Context, eventID string) (int, error)
	ClearAttending(ctx context.Context, eventID string) error
}

// MinParticipants returns the smallest participant count for which a
// round-robin schedule without repeated pairs exists for totalRounds rounds:
// R when R is odd, R+1 when even.
func MinParticipants(totalRounds int) int {
	if totalRounds < 1 {
		totalRounds = 1
	}
	if totalRounds%2 == 1 {
		return totalRounds
	}
	return totalRounds + 1
}

const (
	ReasonNotEnoughPresent = "not enough present"
	ReasonAlreadyRun       = "already run"
)

// Gate is the start-eligibility decision for a session.
type Gate struct {
	CanStart bool   `json:"canStart"`
	Reason   string `json:"reason,omitempty"`
}

// ComputeGate decides start eligibility from the live-connection count. Pure
// and total: callers supply the counts, the gate only judges them.
func ComputeGate(presentCount, minParticipants int, alreadyRun bool) Gate {
	if alreadyRun {
		return Gate{Reason: ReasonAlreadyRun}
	}
	if presentCount < minParticipants {
		return Gate{Reason: ReasonNotEnoughPresent}
	}
	return Gate{CanStart: true}
}

// Stats is the counter snapshot for one event. attendingCount is registered
// intent; presentCount is live connections deduplicated by user.
type Stats struct {
	AttendingCount int `json:"attendingCount"`
	PresentCount   int `json:"presentCount"`
}

// Tracker reads and mutates the per-event counters.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Connected records a live connection for the user.
func (t *Tracker) Connected(ctx context.Context, eventID, userID string) error {
	return t.store.AddPresent(ctx, eventID, userID)
}

// Disconnected removes the user's live connection.
func (t *Tracker) Disconnected(ctx context.Context, eventID, userID string) error {
	return t.store.RemovePresent(ctx, eventID, userID)
}

// SetAttending records or clears the user's opted-in attendance flag.
func (t *Tracker) SetAttending(ctx context.Context, eventID, userID string, attending bool) error {
	return t.store.SetAttending(ctx, eventID, userID, attending)
}

// Stats returns a fresh counter snapshot. Callers re-read on hub events and
// on a periodic resync rather than trusting any cached copy.
func (t *Tracker) Stats(ctx context.Context, eventID string) (Stats, error) {
	present, err := t.store.PresentCount(ctx, eventID)
	if err != nil {
		return Stats{}, err
	}
	attending, err := t.store.AttendingCount(ctx, eventID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{AttendingCount: attending, PresentCount: present}, nil
}

// ClearAttendance drops only the opted-in flags. The session reset cascade
// uses it: live connections survive a reset, registered intent does not.
func (t *Tracker) ClearAttendance(ctx context.Context, eventID string) error {
	return t.store.ClearAttending(ctx, eventID)
}

// Clear drops both counters for the event. Used by the admin
// clear-connections action, which also closes every live socket.
func (t *Tracker) Clear(ctx context.Context, eventID string) error {
	if err := t.store.ClearPresent(ctx, eventID); err != nil {
		return err
	}
	return t.store.ClearAttending(ctx, eventID)
}
