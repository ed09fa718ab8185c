package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"velvethour/internal/model"
)

type MatchRepo interface {
	CreateMany(ctx context.Context, matches []*model.Match) error
	GetByID(ctx context.Context, id string) (*model.Match, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Match, error)
	ListByRound(ctx context.Context, sessionID string, round int) ([]*model.Match, error)
	Update(ctx context.Context, match *model.Match) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

type matchRepo struct {
	collection *mongo.Collection
}

func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{collection: db.Collection("matches")}
}

func (r *matchRepo) CreateMany(ctx context.Context, matches []*model.Match) error {
	if len(matches) == 0 {
		return nil
	}
	docs := make([]interface{}, len(matches))
	for i, m := range matches {
		docs[i] = m
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.Match, error) {
	var match model.Match
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Match, error) {
	return r.list(ctx, bson.M{"sessionId": sessionID})
}

func (r *matchRepo) ListByRound(ctx context.Context, sessionID string, round int) ([]*model.Match, error) {
	return r.list(ctx, bson.M{"sessionId": sessionID, "roundNumber": round})
}

func (r *matchRepo) list(ctx context.Context, filter bson.M) ([]*model.Match, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*model.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *matchRepo) Update(ctx context.Context, match *model.Match) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": match.ID}, match)
	return err
}

func (r *matchRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}
