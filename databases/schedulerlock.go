package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.uber.org/zap"
)

const schedulerLockCollectionName = "schedulerLocks"

// SchedulerLockDatabase provides a best-effort distributed lock so scheduled
// jobs run on a single instance at a time
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock claims the named lock if it is free or expired. The filter
// doubles as the compare step of a compare-and-swap: the upsert only matches a
// document whose expiresAt has passed, and a duplicate-key failure from a
// concurrent claimant reads as "not acquired".
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id":       jobName,
		"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
	}
	update := bson.M{"$set": bson.M{
		"holder":    instanceID,
		"expiresAt": primitive.NewDateTimeFromTime(now.Add(ttl)),
	}}
	opts := options.Update().SetUpsert(true)

	res, err := s.db.Collection(schedulerLockCollectionName).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// duplicate key: another instance holds an unexpired lock
		return false, nil
	}
	acquired := res.ModifiedCount > 0 || res.UpsertedCount > 0
	if acquired {
		zap.S().Debugw("acquired scheduler lock", "job", jobName, "instance", instanceID)
	}
	return acquired, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	_, err := s.db.Collection(schedulerLockCollectionName).UpdateOne(ctx,
		bson.M{"_id": jobName, "holder": instanceID},
		bson.M{"$set": bson.M{"expiresAt": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return err
}
