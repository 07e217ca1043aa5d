package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/databases"
)

// sweepBatchSize is how many queued push requests one sweep drains. It matches
// the Expo batch limit so a sweep is at most one provider call.
const sweepBatchSize = 100

// Scheduler drains the push request queue in the background. Fan-out only
// enqueues; this sweep is the single component that talks to the push
// provider, so a provider outage can never fail a crush send.
type Scheduler struct {
	cron       *cron.Cron
	PRDB       databases.PushRequestDatabase
	PTDB       databases.PushTokenDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	prDB databases.PushRequestDatabase,
	ptDB databases.PushTokenDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		PRDB:       prDB,
		PTDB:       ptDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@every 15s", s.sweepPushRequests)
	if err != nil {
		zap.S().Errorw("failed to register push relay job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Push relay scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Push relay scheduler stopped")
}

// sweepPushRequests drains queued push requests and relays them to Expo. Every
// processed request is deleted whether the send succeeded or not; a request
// must never be retried into a duplicate push, and the inbox document already
// carries the event for the user.
func (s *Scheduler) sweepPushRequests() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (2 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "push_relay_sweep", s.instanceID, 2*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for push relay sweep", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Push relay sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "push_relay_sweep", s.instanceID)

	requests, err := s.PRDB.FindPending(ctx, sweepBatchSize)
	if err != nil {
		zap.S().Errorw("failed to load pending push requests", "error", err)
		return
	}
	if len(requests) == 0 {
		return
	}

	messages := make([]ExpoPushMessage, 0, len(requests))
	for _, request := range requests {
		data := make(map[string]interface{}, len(request.Data))
		for k, v := range request.Data {
			data[k] = v
		}
		messages = append(messages, ExpoPushMessage{
			To:        request.Token,
			Title:     request.Title,
			Body:      request.Body,
			Sound:     "default",
			Data:      data,
			Priority:  "high",
			ChannelID: "default",
		})
	}

	tickets, err := SendExpoPushMessages(messages)
	if err != nil {
		zap.S().Errorw("failed to send push batch", "error", err)
		// tickets may still cover a partial send; fall through and clean up
	}

	sent, invalidated := 0, 0
	for i, request := range requests {
		if i < len(tickets) {
			if tickets[i].OK() {
				sent++
			} else if tickets[i].TokenInvalid() {
				// the device uninstalled or revoked push; drop its token so
				// fan-out stops enqueueing for it
				if err := s.PTDB.DeleteByToken(ctx, request.Token); err != nil {
					zap.S().Errorw("failed to delete invalid push token", "error", err, "userId", request.UserID)
				} else {
					invalidated++
				}
			}
		}
		if err := s.PRDB.DeleteOne(ctx, request.ID); err != nil {
			zap.S().Errorw("failed to delete processed push request", "error", err, "requestId", request.ID.Hex())
		}
	}

	zap.S().Infow("Push relay sweep complete",
		"instance", s.instanceID,
		"processed", len(requests),
		"sent", sent,
		"tokensInvalidated", invalidated,
	)
}
