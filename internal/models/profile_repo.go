package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProfileColName = "profiles"
	DBName         = "rendez"
)

type ProfileRepo interface {
	CreateProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]*Profile, error)
	FindByContact(ctx context.Context, email, phone, excludeID string) (*Profile, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*Profile, error)
	UpdateLocation(ctx context.Context, id string, point GeoPoint, at time.Time) (*Profile, error)
	SetPresence(ctx context.Context, id string, online bool, at time.Time) error
	AddPhoto(ctx context.Context, id, url string) (*Profile, error)
	RemovePhoto(ctx context.Context, id, url string) (*Profile, error)
	AddLike(ctx context.Context, likerID, targetID string) (*Profile, error)
	RemoveLike(ctx context.Context, likerID, targetID string) (*Profile, error)
	HasLiked(ctx context.Context, likerID, targetID string) (bool, error)
	AddMatch(ctx context.Context, a, b string) error
	RemoveMatch(ctx context.Context, a, b string) error
	ResetPair(ctx context.Context, a, b string) error
	FindNearby(ctx context.Context, q NearbyQuery) ([]*NearbyProfile, error)
}

// EnsureProfileIndexes creates the unique contact indexes and the 2dsphere
// index discovery depends on.
func (mdb *MongodbRepo) EnsureProfileIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("phone_number_unique"),
		},
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys: bson.D{
				{Key: "gender", Value: 1},
				{Key: "interested_in", Value: 1},
			},
			Options: options.Index().SetName("preference_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating profile indexes: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateProfile(ctx context.Context, profile *Profile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email or phone number: %w", ErrDuplicate)
		}
		return fmt.Errorf("error inserting profile: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetProfile(ctx context.Context, id string) (*Profile, error) {
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var profile Profile
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding profile: %v", err)
	}
	return &profile, nil
}

func (mdb *MongodbRepo) GetProfiles(ctx context.Context, ids []string) ([]*Profile, error) {
	if len(ids) == 0 {
		return []*Profile{}, nil
	}
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding profiles: %v", err)
	}
	defer cursor.Close(ctx)

	profiles := []*Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("error decoding profiles: %v", err)
	}
	return profiles, nil
}

// FindByContact returns a profile other than excludeID using the given email
// or phone number. Empty values are ignored.
func (mdb *MongodbRepo) FindByContact(ctx context.Context, email, phone, excludeID string) (*Profile, error) {
	or := bson.A{}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone_number": phone})
	}
	if len(or) == 0 {
		return nil, fmt.Errorf("contact lookup: %w", ErrNotFound)
	}

	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{"$or": or}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	var profile Profile
	if err := col.FindOne(ctx, filter).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("contact lookup: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("error finding profile by contact: %v", err)
	}
	return &profile, nil
}

func (mdb *MongodbRepo) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*Profile, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	profile, err := mdb.updateProfile(ctx, id, bson.M{"$set": set})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("email or phone number: %w", ErrDuplicate)
	}
	return profile, err
}

func (mdb *MongodbRepo) UpdateLocation(ctx context.Context, id string, point GeoPoint, at time.Time) (*Profile, error) {
	return mdb.updateProfile(ctx, id, bson.M{
		"$set": bson.M{
			"location":            point,
			"location_updated_at": at,
			"updated_at":          at,
		},
	})
}

func (mdb *MongodbRepo) SetPresence(ctx context.Context, id string, online bool, at time.Time) error {
	_, err := mdb.updateProfile(ctx, id, bson.M{
		"$set": bson.M{
			"is_online":   online,
			"last_active": at,
		},
	})
	return err
}

func (mdb *MongodbRepo) AddPhoto(ctx context.Context, id, url string) (*Profile, error) {
	return mdb.updateProfile(ctx, id, bson.M{
		"$push": bson.M{"photos": url},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

func (mdb *MongodbRepo) RemovePhoto(ctx context.Context, id, url string) (*Profile, error) {
	return mdb.updateProfile(ctx, id, bson.M{
		"$pull": bson.M{"photos": url},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

// AddLike records targetID in the liker's liked set. $addToSet keeps the
// operation idempotent and safe against concurrent writers on the same
// document.
func (mdb *MongodbRepo) AddLike(ctx context.Context, likerID, targetID string) (*Profile, error) {
	return mdb.updateProfile(ctx, likerID, bson.M{
		"$addToSet": bson.M{"liked": targetID},
	})
}

func (mdb *MongodbRepo) RemoveLike(ctx context.Context, likerID, targetID string) (*Profile, error) {
	return mdb.updateProfile(ctx, likerID, bson.M{
		"$pull": bson.M{"liked": targetID},
	})
}

func (mdb *MongodbRepo) HasLiked(ctx context.Context, likerID, targetID string) (bool, error) {
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %v", err)
	}
	n, err := col.CountDocuments(ctx, bson.M{"_id": likerID, "liked": targetID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking like: %v", err)
	}
	return n > 0, nil
}

// AddMatch adds each profile to the other's matched set.
func (mdb *MongodbRepo) AddMatch(ctx context.Context, a, b string) error {
	if _, err := mdb.updateProfile(ctx, a, bson.M{"$addToSet": bson.M{"matches": b}}); err != nil {
		return err
	}
	if _, err := mdb.updateProfile(ctx, b, bson.M{"$addToSet": bson.M{"matches": a}}); err != nil {
		return err
	}
	return nil
}

// RemoveMatch takes each profile out of the other's matched set and leaves
// likes alone.
func (mdb *MongodbRepo) RemoveMatch(ctx context.Context, a, b string) error {
	if _, err := mdb.updateProfile(ctx, a, bson.M{"$pull": bson.M{"matches": b}}); err != nil {
		return err
	}
	if _, err := mdb.updateProfile(ctx, b, bson.M{"$pull": bson.M{"matches": a}}); err != nil {
		return err
	}
	return nil
}

// ResetPair removes every trace of a and b from each other's liked and
// matched sets, returning the pair to its initial state.
func (mdb *MongodbRepo) ResetPair(ctx context.Context, a, b string) error {
	if _, err := mdb.updateProfile(ctx, a, bson.M{"$pull": bson.M{"matches": b, "liked": b}}); err != nil {
		return err
	}
	if _, err := mdb.updateProfile(ctx, b, bson.M{"$pull": bson.M{"matches": a, "liked": a}}); err != nil {
		return err
	}
	return nil
}

// FindNearby runs a $geoNear aggregation against the 2dsphere index. Results
// come back nearest first with the profile id as tie breaker.
func (mdb *MongodbRepo) FindNearby(ctx context.Context, q NearbyQuery) ([]*NearbyProfile, error) {
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	exclude := q.Exclude
	if exclude == nil {
		exclude = []string{}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{q.Origin.Longitude(), q.Origin.Latitude()}},
			}},
			{Key: "key", Value: "location"},
			{Key: "distanceField", Value: "distance_meters"},
			{Key: "maxDistance", Value: q.RadiusMeters},
			{Key: "spherical", Value: true},
			{Key: "query", Value: bson.D{
				{Key: "_id", Value: bson.D{{Key: "$nin", Value: exclude}}},
				{Key: "gender", Value: q.Gender},
				{Key: "interested_in", Value: q.InterestedIn},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "distance_meters", Value: 1},
			{Key: "_id", Value: 1},
		}}},
	}
	if q.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(q.Offset)}})
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error running nearby query: %v", err)
	}
	defer cursor.Close(ctx)

	results := []*NearbyProfile{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding nearby profiles: %v", err)
	}
	return results, nil
}

func (mdb *MongodbRepo) updateProfile(ctx context.Context, id string, update bson.M) (*Profile, error) {
	col, err := mdb.GetCollection(ctx, ProfileColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var profile Profile
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating profile: %v", err)
	}
	return &profile, nil
}
