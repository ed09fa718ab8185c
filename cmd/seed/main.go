package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"velvethour/internal/config"
	"velvethour/internal/model"
)

// Seeds a single active event for local development. Any previously active
// event is deactivated first so the one-active-event invariant holds.
func main() {
	name := flag.String("name", "Velvet Hour", "event name")
	location := flag.String("location", "The Lounge", "event location")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	events := client.Database(cfg.MongoDB).Collection("events")

	if _, err := events.UpdateMany(ctx,
		bson.M{"isActive": true},
		bson.M{"$set": bson.M{"isActive": false}},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to deactivate existing events")
	}

	event := model.Event{
		ID:       "ev_" + uuid.New().String()[:8],
		Name:     *name,
		IsActive: true,
		StartsAt: time.Now().Add(time.Hour),
		Location: *location,
	}
	if _, err := events.InsertOne(ctx, event); err != nil {
		log.Fatal().Err(err).Msg("failed to insert event")
	}

	log.Info().Str("event_id", event.ID).Str("name", event.Name).Msg("seeded active event")
}
