package model

import "time"

// Feedback is one side's post-round response for a match. At most one per
// (matchId, fromUserId); the match is feedback-complete once both sides exist.
type Feedback struct {
	ID            string    `json:"id" bson:"_id"`
	MatchID       string    `json:"matchId" bson:"matchId"`
	SessionID     string    `json:"sessionId" bson:"sessionId"`
	FromUserID    string    `json:"fromUserId" bson:"fromUserId"`
	ToUserID      string    `json:"toUserId" bson:"toUserId"`
	WantToConnect bool      `json:"wantToConnect" bson:"wantToConnect"`
	ReasonCode    string    `json:"reasonCode,omitempty" bson:"reasonCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}
