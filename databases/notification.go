package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const notificationCollectionName = "notifications"

// NotificationDatabase contains the methods to use with the per-user inbox
type NotificationDatabase interface {
	Upsert(ctx context.Context, notification models.Notification) error
	FindByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	DeleteOne(ctx context.Context, recipientID, notificationID string) error
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

// Upsert writes an inbox entry keyed by its deterministic ID. Replayed fan-out
// lands on the same document, so the inbox can never gain duplicates for one
// crush event.
func (n *notificationDatabase) Upsert(ctx context.Context, notification models.Notification) error {
	filter := bson.M{"_id": notification.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := n.db.Collection(notificationCollectionName).ReplaceOne(ctx, filter, notification, opts)
	return err
}

func (n *notificationDatabase) FindByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var notifications []models.Notification
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := n.db.Collection(notificationCollectionName).Find(ctx, bson.M{"recipientId": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.Decode(&notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead flips every unread entry for the recipient in a single batched
// update, so a concurrent badge query never observes a half-read inbox.
func (n *notificationDatabase) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := n.db.Collection(notificationCollectionName).UpdateMany(ctx,
		bson.M{"recipientId": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (n *notificationDatabase) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return n.db.Collection(notificationCollectionName).CountDocuments(ctx, bson.M{"recipientId": recipientID, "read": false})
}

func (n *notificationDatabase) DeleteOne(ctx context.Context, recipientID, notificationID string) error {
	_, err := n.db.Collection(notificationCollectionName).DeleteOne(ctx, bson.M{"_id": notificationID, "recipientId": recipientID})
	return err
}
