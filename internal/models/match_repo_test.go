package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const matchNS = DBName + "." + MatchColName

func matchDoc(id primitive.ObjectID, a, b string, status MatchStatus) bson.D {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "users", Value: bson.A{a, b}},
		{Key: "pair_key", Value: PairKey(a, b)},
		{Key: "status", Value: string(status)},
		{Key: "created_at", Value: now},
		{Key: "last_interaction", Value: now},
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("b", "a"), PairKey("a", "b"))
	assert.Equal(t, "a:b", PairKey("b", "a"))

	m := NewMatch("zed", "amy", time.Now())
	assert.Equal(t, []string{"amy", "zed"}, m.Users)
	assert.True(t, m.IsActive())
	assert.Equal(t, "amy", m.Other("zed"))
	assert.True(t, m.HasParticipant("zed"))
	assert.False(t, m.HasParticipant("bob"))
}

func TestMongoCreateMatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		m := NewMatch("a", "b", time.Now())
		require.NoError(t, repo.CreateMatch(context.Background(), m))
		assert.False(t, m.ID.IsZero())
	})

	mt.Run("active pair collision maps to ErrConflict", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: rendez.matches index: active_pair_unique",
		}))

		err := repo.CreateMatch(context.Background(), NewMatch("a", "b", time.Now()))
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestMongoFindActiveMatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, matchNS, mtest.FirstBatch,
			matchDoc(id, "a", "b", MatchActive)))

		m, err := repo.FindActiveMatch(context.Background(), "b", "a")
		require.NoError(t, err)
		assert.Equal(t, id, m.ID)
		assert.Equal(t, "a:b", m.PairKey)
	})

	mt.Run("none maps to ErrNotFound", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, matchNS, mtest.FirstBatch))

		_, err := repo.FindActiveMatch(context.Background(), "a", "b")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMongoGetMatchRejectsBadID(t *testing.T) {
	repo := MongodbNewRepo(nil, "")
	_, err := repo.GetMatch(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoDeactivateMatch(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("flips status", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		id := primitive.NewObjectID()
		doc := matchDoc(id, "a", "b", MatchInactive)
		doc = append(doc, bson.E{Key: "ended_by", Value: "a"})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc}))

		m, err := repo.DeactivateMatch(context.Background(), id.Hex(), "a", time.Now())
		require.NoError(t, err)
		assert.False(t, m.IsActive())
		assert.Equal(t, "a", m.EndedBy)
	})

	mt.Run("already inactive maps to ErrNotFound", func(mt *mtest.T) {
		repo := MongodbNewRepo(mt.Client, "")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.DeactivateMatch(context.Background(), primitive.NewObjectID().Hex(), "a", time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
