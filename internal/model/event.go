package model

import "time"

// Event is owned by the external CRUD layer; the matchmaking engine only
// reads it to resolve the active event and its metadata.
type Event struct {
	ID       string    `json:"id" bson:"_id"`
	Name     string    `json:"name" bson:"name"`
	IsActive bool      `json:"isActive" bson:"isActive"`
	StartsAt time.Time `json:"startsAt" bson:"startsAt"`
	Location string    `json:"location,omitempty" bson:"location,omitempty"`
}
