package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"velvethour/internal/model"
)

// EventRepo reads events. Writes belong to the external CRUD layer.
type EventRepo interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetActive(ctx context.Context) (*model.Event, error)
}

type eventRepo struct {
	collection *mongo.Collection
}

func NewEventRepo(db *mongo.Database) EventRepo {
	return &eventRepo{collection: db.Collection("events")}
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetActive(ctx context.Context) (*model.Event, error) {
	var event model.Event
	err := r.collection.FindOne(ctx, bson.M{"isActive": true}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
