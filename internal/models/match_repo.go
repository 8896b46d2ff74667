package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MatchColName = "matches"

type MatchRepo interface {
	// CreateMatch inserts a new active match. It returns ErrConflict when an
	// active match for the same pair already exists.
	CreateMatch(ctx context.Context, match *Match) error
	FindActiveMatch(ctx context.Context, a, b string) (*Match, error)
	GetMatch(ctx context.Context, id string) (*Match, error)
	ListMatchesForUser(ctx context.Context, userID string, status MatchStatus) ([]*Match, error)
	DeactivateMatch(ctx context.Context, id, endedBy string, at time.Time) (*Match, error)
	TouchMatch(ctx context.Context, id string, at time.Time) (*Match, error)
}

// EnsureMatchIndexes creates the partial unique index that serializes match
// creation per pair: at most one active record may exist for a pair key.
func (mdb *MongodbRepo) EnsureMatchIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": MatchActive}).
				SetName("active_pair_unique"),
		},
		{
			Keys: bson.D{
				{Key: "users", Value: 1},
				{Key: "last_interaction", Value: -1},
			},
			Options: options.Index().SetName("users_last_interaction_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating match indexes: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateMatch(ctx context.Context, match *Match) error {
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if match.ID.IsZero() {
		match.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, match); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("match %s: %w", match.PairKey, ErrConflict)
		}
		return fmt.Errorf("error inserting match: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) FindActiveMatch(ctx context.Context, a, b string) (*Match, error) {
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var match Match
	err = col.FindOne(ctx, bson.M{"pair_key": PairKey(a, b), "status": MatchActive}).Decode(&match)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("active match %s: %w", PairKey(a, b), ErrNotFound)
		}
		return nil, fmt.Errorf("error finding match: %v", err)
	}
	return &match, nil
}

func (mdb *MongodbRepo) GetMatch(ctx context.Context, id string) (*Match, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var match Match
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&match); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding match: %v", err)
	}
	return &match, nil
}

func (mdb *MongodbRepo) ListMatchesForUser(ctx context.Context, userID string, status MatchStatus) ([]*Match, error) {
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{"users": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_interaction", Value: -1}})

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding matches: %v", err)
	}
	defer cursor.Close(ctx)

	matches := []*Match{}
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("error decoding matches: %v", err)
	}
	return matches, nil
}

// DeactivateMatch flips an active match to inactive. Matches that are already
// inactive are reported as not found so a second unmatch is a no-op upstream.
func (mdb *MongodbRepo) DeactivateMatch(ctx context.Context, id, endedBy string, at time.Time) (*Match, error) {
	return mdb.updateActiveMatch(ctx, id, bson.M{
		"$set": bson.M{
			"status":   MatchInactive,
			"ended_at": at,
			"ended_by": endedBy,
		},
	})
}

func (mdb *MongodbRepo) TouchMatch(ctx context.Context, id string, at time.Time) (*Match, error) {
	return mdb.updateActiveMatch(ctx, id, bson.M{
		"$max": bson.M{"last_interaction": at},
	})
}

func (mdb *MongodbRepo) updateActiveMatch(ctx context.Context, id string, update bson.M) (*Match, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	col, err := mdb.GetCollection(ctx, MatchColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var match Match
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": MatchActive}, update, opts).Decode(&match)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("active match %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error updating match: %v", err)
	}
	return &match, nil
}
