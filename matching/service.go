package matching

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/models"
)

// Notifier delivers a realtime event to a connected user. Implemented by the
// websocket notification hub; a nil Notifier drops events.
type Notifier interface {
	NotifyUser(userID string, event string, payload interface{})
}

// Service is the match detector and notification fan-out. All crush sends for
// a given pair funnel through one per-pair lock, so the reciprocal check
// always observes a completed write from the other side if one happened.
type Service struct {
	Crushes       databases.CrushDatabase
	Notifications databases.NotificationDatabase
	MatchSlots    databases.MatchSlotDatabase
	PushTokens    databases.PushTokenDatabase
	PushRequests  databases.PushRequestDatabase
	Notifier      Notifier

	pairs *pairLocks
}

// NewService wires a match detector over the given collections.
func NewService(
	crushes databases.CrushDatabase,
	notifications databases.NotificationDatabase,
	matchSlots databases.MatchSlotDatabase,
	pushTokens databases.PushTokenDatabase,
	pushRequests databases.PushRequestDatabase,
	notifier Notifier,
) *Service {
	return &Service{
		Crushes:       crushes,
		Notifications: notifications,
		MatchSlots:    matchSlots,
		PushTokens:    pushTokens,
		PushRequests:  pushRequests,
		Notifier:      notifier,
		pairs:         newPairLocks(),
	}
}

// SendCrush records senderID's crush on targetID and reports whether that send
// completed a mutual pair. The crush write always happens, match or not; only
// the send that lands second returns true, the earlier record is never
// retroactively promoted. On error nothing is reported as recorded and the
// caller must not show success.
func (s *Service) SendCrush(ctx context.Context, senderID, targetID string) (bool, error) {
	if senderID == targetID {
		return false, fmt.Errorf("sender and target must differ")
	}

	release := s.pairs.acquire(PairKey(senderID, targetID))
	defer release()

	crush := models.Crush{
		SenderID:  senderID,
		TargetID:  targetID,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := s.Crushes.Upsert(ctx, crush); err != nil {
		return false, fmt.Errorf("failed to record crush: %w", err)
	}

	reciprocal, err := s.Crushes.Exists(ctx, targetID, senderID)
	if err != nil {
		return false, fmt.Errorf("failed to check reciprocal crush: %w", err)
	}
	return reciprocal, nil
}

// FanOutCrush writes the anonymized "someone has a crush on you" notification
// for a plain one-way crush. The sender learns nothing.
func (s *Service) FanOutCrush(ctx context.Context, sender, target models.User) error {
	notification := models.Notification{
		ID:          crushNotificationID(sender.ID, target.ID),
		RecipientID: target.ID,
		Type:        models.NotificationTypeCrush,
		Message:     "Somebody has a crush on you! 💘",
		FromUserID:  sender.ID,
		LegacyPath:  legacyInboxPath(target.Details.Email),
		Read:        false,
		CreatedAt:   primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := s.Notifications.Upsert(ctx, notification); err != nil {
		return fmt.Errorf("failed to write crush notification: %w", err)
	}

	s.notify(target.ID, "new_notification", notification)
	s.enqueuePush(ctx, target.ID,
		"New Crush Alert! 💘",
		"Someone has a crush on you! Check your notifications!",
		map[string]string{"screen": "/notification"},
	)
	return nil
}

// FanOutMatch writes both sides of a new mutual match: one mutual_crush inbox
// entry each plus the single-slot match record carrying the counterpart's
// public profile. Both sides are written in the same call so a match is never
// visible to only one user; deterministic ids make a replay converge on the
// same documents instead of duplicating them.
func (s *Service) FanOutMatch(ctx context.Context, a, b models.User) error {
	pair := PairKey(a.ID, b.ID)
	now := primitive.NewDateTimeFromTime(time.Now())

	sides := []struct {
		recipient   models.User
		counterpart models.User
	}{
		{recipient: a, counterpart: b},
		{recipient: b, counterpart: a},
	}

	for _, side := range sides {
		notification := models.Notification{
			ID:          mutualNotificationID(pair, side.recipient.ID),
			RecipientID: side.recipient.ID,
			Type:        models.NotificationTypeMutualCrush,
			Message:     fmt.Sprintf("It's a match! You and %s have a crush on each other! 💘", side.counterpart.Snapshot().Name),
			FromUserID:  side.counterpart.ID,
			LegacyPath:  legacyInboxPath(side.recipient.Details.Email),
			Read:        false,
			CreatedAt:   now,
		}
		if err := s.Notifications.Upsert(ctx, notification); err != nil {
			return fmt.Errorf("failed to write mutual crush notification for %s: %w", side.recipient.ID, err)
		}

		slot := models.MatchSlot{
			UserID:      side.recipient.ID,
			Counterpart: side.counterpart.Snapshot(),
			CreatedAt:   now,
		}
		if err := s.MatchSlots.Replace(ctx, slot); err != nil {
			return fmt.Errorf("failed to write match slot for %s: %w", side.recipient.ID, err)
		}

		s.notify(side.recipient.ID, "mutual_crush", slot)
		s.enqueuePush(ctx, side.recipient.ID,
			"It's a Match! 💘",
			fmt.Sprintf("You and %s have a crush on each other!", side.counterpart.Snapshot().Name),
			map[string]string{"screen": "/notification", "matchedWith": side.counterpart.ID},
		)
	}
	return nil
}

// Status reports the crush relationship between two users from the viewer's
// perspective: sent, received and the derived mutual flag.
func (s *Service) Status(ctx context.Context, viewerID, profileID string) (sent, received bool, err error) {
	sent, err = s.Crushes.Exists(ctx, viewerID, profileID)
	if err != nil {
		return false, false, err
	}
	received, err = s.Crushes.Exists(ctx, profileID, viewerID)
	if err != nil {
		return false, false, err
	}
	return sent, received, nil
}

func (s *Service) notify(userID, event string, payload interface{}) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.NotifyUser(userID, event, payload)
}

// enqueuePush queues a push request for the relay sweep. No registered token
// is not an error, it just means the user never enabled push.
func (s *Service) enqueuePush(ctx context.Context, userID, title, body string, data map[string]string) {
	token, err := s.PushTokens.FindByUserID(ctx, userID)
	if err != nil {
		zap.S().Debugw("no push token for user, skipping push", "userId", userID)
		return
	}
	request := models.PushRequest{
		UserID:    userID,
		Token:     token.Token,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := s.PushRequests.InsertOne(ctx, request); err != nil {
		zap.S().Errorw("failed to enqueue push request", "userId", userID, "error", err)
	}
}

func legacyInboxPath(email string) string {
	if email == "" {
		return ""
	}
	return "userNotifications/" + SanitizeEmail(email) + "/notifications"
}
