package model

import "time"

// Match is one participant pair for one round. The unordered pair
// {User1ID, User2ID} never repeats across rounds of the same session.
type Match struct {
	ID             string    `json:"id" bson:"_id"`
	SessionID      string    `json:"sessionId" bson:"sessionId"`
	RoundNumber    int       `json:"roundNumber" bson:"roundNumber"`
	User1ID        string    `json:"user1Id" bson:"user1Id"`
	User2ID        string    `json:"user2Id" bson:"user2Id"`
	MatchNumber    int       `json:"matchNumber" bson:"matchNumber"`
	MatchColor     string    `json:"matchColor" bson:"matchColor"`
	ConfirmedUser1 bool      `json:"confirmedUser1" bson:"confirmedUser1"`
	ConfirmedUser2 bool      `json:"confirmedUser2" bson:"confirmedUser2"`
	ForcedRepeat   bool      `json:"forcedRepeat,omitempty" bson:"forcedRepeat,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}

// Includes reports whether userID is one of the two sides of the match.
func (m *Match) Includes(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// Partner returns the other side of the match, or "" if userID is not in it.
func (m *Match) Partner(userID string) string {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	}
	return ""
}

// Confirmed reports whether both sides confirmed the match.
func (m *Match) Confirmed() bool {
	return m.ConfirmedUser1 && m.ConfirmedUser2
}
