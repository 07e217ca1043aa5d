package databases

// go generate: mockery --name ThoughtDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const thoughtCollectionName = "thoughts"

// ThoughtDatabase contains the methods to use with the anonymous thoughts feed
type ThoughtDatabase interface {
	InsertOne(ctx context.Context, thought models.Thought) error
	Find(ctx context.Context, filter interface{}) ([]models.Thought, error)
	Like(ctx context.Context, thoughtID primitive.ObjectID, userID string) (bool, error)
	Unlike(ctx context.Context, thoughtID primitive.ObjectID, userID string) (bool, error)
	AddComment(ctx context.Context, thoughtID primitive.ObjectID, comment models.ThoughtComment) error
	DeleteOne(ctx context.Context, thoughtID primitive.ObjectID, authorID string) (bool, error)
}

type thoughtDatabase struct {
	db DatabaseHelper
}

// NewThoughtDatabase initializes a new instance of thought database with the provided db connection
func NewThoughtDatabase(db DatabaseHelper) ThoughtDatabase {
	return &thoughtDatabase{
		db: db,
	}
}

func (t *thoughtDatabase) InsertOne(ctx context.Context, thought models.Thought) error {
	_, err := t.db.Collection(thoughtCollectionName).InsertOne(ctx, thought)
	return err
}

func (t *thoughtDatabase) Find(ctx context.Context, filter interface{}) ([]models.Thought, error) {
	var thoughts []models.Thought
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := t.db.Collection(thoughtCollectionName).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.Decode(&thoughts); err != nil {
		return nil, err
	}
	return thoughts, nil
}

// Like increments the counter and records the liker in one atomic update. The
// likedBy guard in the filter makes a double-tap a no-op instead of a lost
// update under concurrent likes.
func (t *thoughtDatabase) Like(ctx context.Context, thoughtID primitive.ObjectID, userID string) (bool, error) {
	res, err := t.db.Collection(thoughtCollectionName).UpdateOne(ctx,
		bson.M{"_id": thoughtID, "likedBy."+userID: bson.M{"$exists": false}},
		bson.M{"$inc": bson.M{"likes": 1}, "$set": bson.M{"likedBy." + userID: true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount+res.UpsertedCount > 0, nil
}

func (t *thoughtDatabase) Unlike(ctx context.Context, thoughtID primitive.ObjectID, userID string) (bool, error) {
	res, err := t.db.Collection(thoughtCollectionName).UpdateOne(ctx,
		bson.M{"_id": thoughtID, "likedBy." + userID: true},
		bson.M{"$inc": bson.M{"likes": -1}, "$unset": bson.M{"likedBy." + userID: ""}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (t *thoughtDatabase) AddComment(ctx context.Context, thoughtID primitive.ObjectID, comment models.ThoughtComment) error {
	_, err := t.db.Collection(thoughtCollectionName).UpdateOne(ctx,
		bson.M{"_id": thoughtID},
		bson.M{"$push": bson.M{"comments": comment}},
	)
	return err
}

// DeleteOne removes a thought only when the caller authored it.
func (t *thoughtDatabase) DeleteOne(ctx context.Context, thoughtID primitive.ObjectID, authorID string) (bool, error) {
	deleted, err := t.db.Collection(thoughtCollectionName).DeleteOne(ctx, bson.M{"_id": thoughtID, "authorId": authorID})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
