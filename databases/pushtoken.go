package databases

// go generate: mockery --name PushTokenDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const pushTokenCollectionName = "pushTokens"

// PushTokenDatabase contains the methods to use with the push token database.
// One token per user: registering a new device replaces the old token, and the
// push relay deletes the token when the provider reports it invalid.
type PushTokenDatabase interface {
	FindByUserID(ctx context.Context, userID string) (*models.PushToken, error)
	Upsert(ctx context.Context, token models.PushToken) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteByToken(ctx context.Context, token string) error
}

type pushTokenDatabase struct {
	db DatabaseHelper
}

// NewPushTokenDatabase initializes a new instance of push token database with the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return &pushTokenDatabase{
		db: db,
	}
}

func (pt *pushTokenDatabase) FindByUserID(ctx context.Context, userID string) (*models.PushToken, error) {
	token := &models.PushToken{}
	err := pt.db.Collection(pushTokenCollectionName).FindOne(ctx, bson.M{"userId": userID}).Decode(token)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (pt *pushTokenDatabase) Upsert(ctx context.Context, token models.PushToken) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set":         bson.M{"token": token.Token, "platform": token.Platform, "updatedAt": now},
		"$setOnInsert": bson.M{"userId": token.UserID, "createdAt": now},
	}
	opts := options.Update().SetUpsert(true)
	_, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx, bson.M{"userId": token.UserID}, update, opts)
	return err
}

func (pt *pushTokenDatabase) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

func (pt *pushTokenDatabase) DeleteByToken(ctx context.Context, token string) error {
	_, err := pt.db.Collection(pushTokenCollectionName).DeleteMany(ctx, bson.M{"token": token})
	return err
}
