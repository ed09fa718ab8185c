package service

import "velvethour/internal/model"

// Broadcaster fans state changes out to live event connections. The ws hub
// implements it; keeping the interface here avoids an import cycle.
type Broadcaster interface {
	BroadcastToEvent(eventID string, msgType model.MessageType, payload interface{})
	BroadcastToUser(eventID, userID string, msgType model.MessageType, payload interface{})
	// ForceDisconnect sends a terminal message and closes connections for the
	// user, or for every user of the event when userID is empty.
	ForceDisconnect(eventID, userID string)
}
