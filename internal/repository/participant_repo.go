package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"velvethour/internal/model"
)

type ParticipantRepo interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetBySessionAndUser(ctx context.Context, sessionID, userID string) (*model.Participant, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Participant, error)
	// SetStatus updates the status of the given users within a session.
	SetStatus(ctx context.Context, sessionID string, userIDs []string, status model.ParticipantStatus) error
	SetStatusAll(ctx context.Context, sessionID string, status model.ParticipantStatus) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

type participantRepo struct {
	collection *mongo.Collection
}

func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{collection: db.Collection("participants")}
}

func (r *participantRepo) Create(ctx context.Context, participant *model.Participant) error {
	_, err := r.collection.InsertOne(ctx, participant)
	return err
}

func (r *participantRepo) GetBySessionAndUser(ctx context.Context, sessionID, userID string) (*model.Participant, error) {
	var participant model.Participant
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID, "userId": userID}).Decode(&participant)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepo) SetStatus(ctx context.Context, sessionID string, userIDs []string, status model.ParticipantStatus) error {
	if len(userIDs) == 0 {
		return nil
	}
	filter := bson.M{
		"sessionId": sessionID,
		"userId":    bson.M{"$in": userIDs},
	}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": status}})
	return err
}

func (r *participantRepo) SetStatusAll(ctx context.Context, sessionID string, status model.ParticipantStatus) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"sessionId": sessionID}, bson.M{"$set": bson.M{"status": status}})
	return err
}

func (r *participantRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
