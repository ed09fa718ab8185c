package model

import "time"

type ParticipantStatus string

const (
	ParticipantWaiting   ParticipantStatus = "waiting"
	ParticipantMatched   ParticipantStatus = "matched"
	ParticipantInRound   ParticipantStatus = "in_round"
	ParticipantCompleted ParticipantStatus = "completed"
)

// Participant links a user to a session. One per (sessionId, userId); never
// hard-deleted except by the session reset cascade.
type Participant struct {
	ID          string            `json:"id" bson:"_id"`
	SessionID   string            `json:"sessionId" bson:"sessionId"`
	UserID      string            `json:"userId" bson:"userId"`
	DisplayName string            `json:"displayName" bson:"displayName"`
	Status      ParticipantStatus `json:"status" bson:"status"`
	JoinedAt    time.Time         `json:"joinedAt" bson:"joinedAt"`
}

// JoinResponse is returned when a participant joins an event.
type JoinResponse struct {
	UserID      string       `json:"userId"`
	Token       string       `json:"token"`
	Participant *Participant `json:"participant"`
	Status      *StatusResponse `json:"status"`
}
