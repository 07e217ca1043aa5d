package databases

// go generate: mockery --name MatchSlotDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const matchSlotCollectionName = "matchSlots"

// MatchSlotDatabase contains the methods to use with the single-slot match
// notification record. Overwrite, never append.
type MatchSlotDatabase interface {
	Replace(ctx context.Context, slot models.MatchSlot) error
	FindOne(ctx context.Context, userID string) (*models.MatchSlot, error)
	Delete(ctx context.Context, userID string) error
}

type matchSlotDatabase struct {
	db DatabaseHelper
}

// NewMatchSlotDatabase initializes a new instance of match slot database with the provided db connection
func NewMatchSlotDatabase(db DatabaseHelper) MatchSlotDatabase {
	return &matchSlotDatabase{
		db: db,
	}
}

func (m *matchSlotDatabase) Replace(ctx context.Context, slot models.MatchSlot) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.db.Collection(matchSlotCollectionName).ReplaceOne(ctx, bson.M{"_id": slot.UserID}, slot, opts)
	return err
}

func (m *matchSlotDatabase) FindOne(ctx context.Context, userID string) (*models.MatchSlot, error) {
	slot := &models.MatchSlot{}
	err := m.db.Collection(matchSlotCollectionName).FindOne(ctx, bson.M{"_id": userID}).Decode(slot)
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (m *matchSlotDatabase) Delete(ctx context.Context, userID string) error {
	_, err := m.db.Collection(matchSlotCollectionName).DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
