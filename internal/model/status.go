package model

// StatusResponse is the canonical per-user view returned by the status
// endpoint. Clients treat it as ground truth on every resync.
type StatusResponse struct {
	IsActive     bool         `json:"isActive"`
	Session      *Session     `json:"session,omitempty"`
	Participant  *Participant `json:"participant,omitempty"`
	CurrentMatch *Match       `json:"currentMatch,omitempty"`
	PartnerName  string       `json:"partnerName,omitempty"`
	TimeLeftSec  int          `json:"timeLeftSec,omitempty"`
}

// AttendanceStats is the admin view of the start gate.
type AttendanceStats struct {
	AttendingCount   int    `json:"attendingCount"`
	PresentCount     int    `json:"presentCount"`
	MinParticipants  int    `json:"minParticipants"`
	CanStart         bool   `json:"canStart"`
	Reason           string `json:"reason,omitempty"`
	MatchesDone      int    `json:"matchesDone"`
	FeedbackComplete int    `json:"feedbackComplete"`
}
