package databases

// go generate: mockery --name PushRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const pushRequestCollectionName = "pushRequests"

// PushRequestDatabase contains the methods to use with the push relay queue
type PushRequestDatabase interface {
	InsertOne(ctx context.Context, request models.PushRequest) error
	FindPending(ctx context.Context, limit int64) ([]models.PushRequest, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
}

type pushRequestDatabase struct {
	db DatabaseHelper
}

// NewPushRequestDatabase initializes a new instance of push request database with the provided db connection
func NewPushRequestDatabase(db DatabaseHelper) PushRequestDatabase {
	return &pushRequestDatabase{
		db: db,
	}
}

func (pr *pushRequestDatabase) InsertOne(ctx context.Context, request models.PushRequest) error {
	_, err := pr.db.Collection(pushRequestCollectionName).InsertOne(ctx, request)
	return err
}

func (pr *pushRequestDatabase) FindPending(ctx context.Context, limit int64) ([]models.PushRequest, error) {
	var requests []models.PushRequest
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)
	cursor, err := pr.db.Collection(pushRequestCollectionName).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.Decode(&requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (pr *pushRequestDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	_, err := pr.db.Collection(pushRequestCollectionName).DeleteOne(ctx, bson.M{"_id": id})
	return err
}
