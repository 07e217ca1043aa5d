package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/databases/mocks"
	"github.com/findcrush/campus-crush-api/models"
)

func TestNotificationDatabase_UpsertKeyedByID(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	notification := models.Notification{
		ID:          "crush:alice:bob",
		RecipientID: "bob",
		Type:        models.NotificationTypeCrush,
	}

	collectionHelper.(*mocks.CollectionHelper).
		On("ReplaceOne", mock.Anything, bson.M{"_id": "crush:alice:bob"}, notification, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notifications").Return(collectionHelper)

	notificationDba := databases.NewNotificationDatabase(dbHelper)

	err := notificationDba.Upsert(context.Background(), notification)
	assert.NoError(t, err)

	collectionHelper.(*mocks.CollectionHelper).AssertExpectations(t)
}

func TestNotificationDatabase_MarkAllRead(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateMany", mock.Anything,
			bson.M{"recipientId": "bob", "read": false},
			bson.M{"$set": bson.M{"read": true}}).
		Return(&mongo.UpdateResult{ModifiedCount: 4}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notifications").Return(collectionHelper)

	notificationDba := databases.NewNotificationDatabase(dbHelper)

	modified, err := notificationDba.MarkAllRead(context.Background(), "bob")
	assert.NoError(t, err)
	assert.Equal(t, int64(4), modified)
}

func TestNotificationDatabase_CountUnread(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("CountDocuments", mock.Anything, bson.M{"recipientId": "bob", "read": false}).
		Return(int64(2), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notifications").Return(collectionHelper)

	notificationDba := databases.NewNotificationDatabase(dbHelper)

	count, err := notificationDba.CountUnread(context.Background(), "bob")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationDatabase_DeleteOneScopedToRecipient(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("DeleteOne", mock.Anything, bson.M{"_id": "crush:alice:bob", "recipientId": "bob"}).
		Return(int64(1), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "notifications").Return(collectionHelper)

	notificationDba := databases.NewNotificationDatabase(dbHelper)

	err := notificationDba.DeleteOne(context.Background(), "bob", "crush:alice:bob")
	assert.NoError(t, err)

	collectionHelper.(*mocks.CollectionHelper).AssertExpectations(t)
}
