package model

import "time"

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionWaiting    SessionStatus = "waiting"
	SessionInRound    SessionStatus = "in_round"
	SessionBreak      SessionStatus = "break"
	SessionCompleted  SessionStatus = "completed"
)

// SessionConfig holds the per-session round parameters. Durations are in
// seconds because they travel to clients as plain JSON numbers.
type SessionConfig struct {
	RoundDurationSec int `json:"roundDurationSec" bson:"roundDurationSec"`
	BreakDurationSec int `json:"breakDurationSec" bson:"breakDurationSec"`
	TotalRounds      int `json:"totalRounds" bson:"totalRounds"`
}

// Session is one end-to-end run of the matchmaking event. At most one
// non-completed session exists per event.
type Session struct {
	ID             string        `json:"id" bson:"_id"`
	EventID        string        `json:"eventId" bson:"eventId"`
	Status         SessionStatus `json:"status" bson:"status"`
	CurrentRound   int           `json:"currentRound" bson:"currentRound"`
	RoundStartedAt *time.Time    `json:"roundStartedAt,omitempty" bson:"roundStartedAt,omitempty"`
	RoundEndsAt    *time.Time    `json:"roundEndsAt,omitempty" bson:"roundEndsAt,omitempty"`
	Config         SessionConfig `json:"config" bson:"config"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Open reports whether the session can still accept transitions.
func (s *Session) Open() bool {
	return s.Status != SessionCompleted
}

// SessionSnapshot is the full state broadcast on every transition. Clients
// must be able to resync from any single snapshot after a reconnect, so this
// is never a diff.
type SessionSnapshot struct {
	Session      *Session       `json:"session"`
	Matches      []*Match       `json:"matches"`
	Participants []*Participant `json:"participants"`
}
