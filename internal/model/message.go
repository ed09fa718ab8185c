package model

import (
	"encoding/json"
	"time"
)

// MessageType enumerates every real-time message variant. The set is closed:
// services and hubs only speak these constants, never ad hoc strings.
type MessageType string

const (
	MsgSessionStarted    MessageType = "session_started"
	MsgSessionEnded      MessageType = "session_ended"
	MsgSessionReset      MessageType = "session_reset"
	MsgRoundStarted      MessageType = "round_started"
	MsgRoundClosed       MessageType = "round_closed"
	MsgMatchConfirmed    MessageType = "match_confirmed"
	MsgFeedbackSubmitted MessageType = "feedback_submitted"
	MsgParticipantJoined MessageType = "participant_joined"
	MsgParticipantLeft   MessageType = "participant_left"
	MsgPresenceUpdate    MessageType = "presence_update"
	MsgConfigUpdated     MessageType = "config_updated"
	MsgAdminDisconnect   MessageType = "admin_disconnect"
	MsgPing              MessageType = "ping"
	MsgPong              MessageType = "pong"
)

// Envelope is the wire format for every real-time message.
type Envelope struct {
	Type      MessageType     `json:"type"`
	EventID   string          `json:"eventId"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(t MessageType, eventID string, payload interface{}) (*Envelope, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return &Envelope{
		Type:      t,
		EventID:   eventID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// PresenceUpdate is the lightweight delta broadcast on connect/disconnect.
type PresenceUpdate struct {
	PresentCount int `json:"presentCount"`
}

// ParticipantLeft announces a participant connection going away, alongside
// the presence delta.
type ParticipantLeft struct {
	UserID string `json:"userId"`
}
