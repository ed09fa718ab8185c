package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"velvethour/internal/model"
)

type FeedbackRepo interface {
	Create(ctx context.Context, feedback *model.Feedback) error
	GetByMatchAndUser(ctx context.Context, matchID, fromUserID string) (*model.Feedback, error)
	CountByMatch(ctx context.Context, matchID string) (int, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Feedback, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type feedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepo {
	return &feedbackRepo{collection: db.Collection("feedback")}
}

func (r *feedbackRepo) Create(ctx context.Context, feedback *model.Feedback) error {
	_, err := r.collection.InsertOne(ctx, feedback)
	return err
}

func (r *feedbackRepo) GetByMatchAndUser(ctx context.Context, matchID, fromUserID string) (*model.Feedback, error) {
	var feedback model.Feedback
	err := r.collection.FindOne(ctx, bson.M{"matchId": matchID, "fromUserId": fromUserID}).Decode(&feedback)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepo) CountByMatch(ctx context.Context, matchID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"matchId": matchID})
	return int(n), err
}

func (r *feedbackRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Feedback, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var feedback []*model.Feedback
	if err := cursor.All(ctx, &feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *feedbackRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
