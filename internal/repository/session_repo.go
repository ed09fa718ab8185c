package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"velvethour/internal/model"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// GetOpenByEvent returns the single non-completed session for the event,
	// or nil when none exists.
	GetOpenByEvent(ctx context.Context, eventID string) (*model.Session, error)
	// HasCompleted reports whether a completed session already exists for the
	// event; it feeds the "already run" half of the start gate.
	HasCompleted(ctx context.Context, eventID string) (bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{collection: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetOpenByEvent(ctx context.Context, eventID string) (*model.Session, error) {
	var session model.Session
	filter := bson.M{
		"eventId": eventID,
		"status":  bson.M{"$ne": model.SessionCompleted},
	}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) HasCompleted(ctx context.Context, eventID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{
		"eventId": eventID,
		"status":  model.SessionCompleted,
	})
	return n > 0, err
}

func (r *sessionRepo) ListByEvent(ctx context.Context, eventID string) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
