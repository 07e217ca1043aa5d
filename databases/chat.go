package databases

// go generate: mockery --name ChatDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const chatCollectionName = "chatMessages"

// ChatDatabase contains the methods to use with the chat message log. The
// channel is implicit: it exists as soon as the first message carrying its id
// is inserted.
type ChatDatabase interface {
	InsertOne(ctx context.Context, message models.ChatMessage) error
	FindByChannel(ctx context.Context, channelID string) ([]models.ChatMessage, error)
}

type chatDatabase struct {
	db DatabaseHelper
}

// NewChatDatabase initializes a new instance of chat database with the provided db connection
func NewChatDatabase(db DatabaseHelper) ChatDatabase {
	return &chatDatabase{
		db: db,
	}
}

func (c *chatDatabase) InsertOne(ctx context.Context, message models.ChatMessage) error {
	_, err := c.db.Collection(chatCollectionName).InsertOne(ctx, message)
	return err
}

func (c *chatDatabase) FindByChannel(ctx context.Context, channelID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := c.db.Collection(chatCollectionName).Find(ctx, bson.M{"channelId": channelID}, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}
