package databases

// go generate: mockery --name CrushDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/findcrush/campus-crush-api/models"
)

const crushCollectionName = "crushes"

// CrushDatabase contains the methods to use with the crush ledger. The
// collection carries a unique compound index on (senderId, targetId); the
// reverse lookup ("who crushed on me") is an indexed query on targetId rather
// than a scan over every sender's ledger.
type CrushDatabase interface {
	Upsert(ctx context.Context, crush models.Crush) error
	Exists(ctx context.Context, senderID, targetID string) (bool, error)
	FindBySender(ctx context.Context, senderID string) ([]models.Crush, error)
	FindByTarget(ctx context.Context, targetID string) ([]models.Crush, error)
}

type crushDatabase struct {
	db DatabaseHelper
}

// NewCrushDatabase initializes a new instance of crush database with the provided db connection
func NewCrushDatabase(db DatabaseHelper) CrushDatabase {
	return &crushDatabase{
		db: db,
	}
}

// Upsert records a crush from sender to target. Overwrite-by-key: re-sending
// refreshes the timestamp, it never creates a second record for the pair.
func (c *crushDatabase) Upsert(ctx context.Context, crush models.Crush) error {
	filter := bson.M{"senderId": crush.SenderID, "targetId": crush.TargetID}
	update := bson.M{"$set": bson.M{"createdAt": crush.CreatedAt}, "$setOnInsert": filter}
	opts := options.Update().SetUpsert(true)
	_, err := c.db.Collection(crushCollectionName).UpdateOne(ctx, filter, update, opts)
	return err
}

func (c *crushDatabase) Exists(ctx context.Context, senderID, targetID string) (bool, error) {
	count, err := c.db.Collection(crushCollectionName).CountDocuments(ctx, bson.M{"senderId": senderID, "targetId": targetID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *crushDatabase) FindBySender(ctx context.Context, senderID string) ([]models.Crush, error) {
	return c.find(ctx, bson.M{"senderId": senderID})
}

func (c *crushDatabase) FindByTarget(ctx context.Context, targetID string) ([]models.Crush, error) {
	return c.find(ctx, bson.M{"targetId": targetID})
}

func (c *crushDatabase) find(ctx context.Context, filter interface{}) ([]models.Crush, error) {
	var crushes []models.Crush
	cursor, err := c.db.Collection(crushCollectionName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := cursor.Decode(&crushes); err != nil {
		return nil, err
	}
	return crushes, nil
}
