package matching_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findcrush/campus-crush-api/matching"
	"github.com/findcrush/campus-crush-api/models"
)

// in-memory fakes over the database interfaces, safe for concurrent use

type fakeCrushDB struct {
	mu      sync.Mutex
	crushes map[[2]string]models.Crush
}

func newFakeCrushDB() *fakeCrushDB {
	return &fakeCrushDB{crushes: make(map[[2]string]models.Crush)}
}

func (f *fakeCrushDB) Upsert(_ context.Context, crush models.Crush) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crushes[[2]string{crush.SenderID, crush.TargetID}] = crush
	return nil
}

func (f *fakeCrushDB) Exists(_ context.Context, senderID, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.crushes[[2]string{senderID, targetID}]
	return ok, nil
}

func (f *fakeCrushDB) FindBySender(_ context.Context, senderID string) ([]models.Crush, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Crush
	for key, crush := range f.crushes {
		if key[0] == senderID {
			out = append(out, crush)
		}
	}
	return out, nil
}

func (f *fakeCrushDB) FindByTarget(_ context.Context, targetID string) ([]models.Crush, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Crush
	for key, crush := range f.crushes {
		if key[1] == targetID {
			out = append(out, crush)
		}
	}
	return out, nil
}

type fakeNotificationDB struct {
	mu            sync.Mutex
	notifications map[string]models.Notification
}

func newFakeNotificationDB() *fakeNotificationDB {
	return &fakeNotificationDB{notifications: make(map[string]models.Notification)}
}

func (f *fakeNotificationDB) Upsert(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[n.ID] = n
	return nil
}

func (f *fakeNotificationDB) FindByRecipient(_ context.Context, recipientID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationDB) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var modified int64
	for id, n := range f.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			f.notifications[id] = n
			modified++
		}
	}
	return modified, nil
}

func (f *fakeNotificationDB) CountUnread(_ context.Context, recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationDB) DeleteOne(_ context.Context, recipientID, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.notifications[notificationID]; ok && n.RecipientID == recipientID {
		delete(f.notifications, notificationID)
	}
	return nil
}

type fakeMatchSlotDB struct {
	mu    sync.Mutex
	slots map[string]models.MatchSlot
}

func newFakeMatchSlotDB() *fakeMatchSlotDB {
	return &fakeMatchSlotDB{slots: make(map[string]models.MatchSlot)}
}

func (f *fakeMatchSlotDB) Replace(_ context.Context, slot models.MatchSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slot.UserID] = slot
	return nil
}

func (f *fakeMatchSlotDB) FindOne(_ context.Context, userID string) (*models.MatchSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[userID]
	if !ok {
		return nil, errors.New("no documents in result")
	}
	return &slot, nil
}

func (f *fakeMatchSlotDB) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, userID)
	return nil
}

type fakePushTokenDB struct {
	mu     sync.Mutex
	tokens map[string]models.PushToken
}

func newFakePushTokenDB() *fakePushTokenDB {
	return &fakePushTokenDB{tokens: make(map[string]models.PushToken)}
}

func (f *fakePushTokenDB) FindByUserID(_ context.Context, userID string) (*models.PushToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[userID]
	if !ok {
		return nil, errors.New("no documents in result")
	}
	return &token, nil
}

func (f *fakePushTokenDB) Upsert(_ context.Context, token models.PushToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.UserID] = token
	return nil
}

func (f *fakePushTokenDB) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, userID)
	return nil
}

func (f *fakePushTokenDB) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, stored := range f.tokens {
		if stored.Token == token {
			delete(f.tokens, userID)
		}
	}
	return nil
}

type fakePushRequestDB struct {
	mu       sync.Mutex
	requests []models.PushRequest
}

func (f *fakePushRequestDB) InsertOne(_ context.Context, request models.PushRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	return nil
}

func (f *fakePushRequestDB) FindPending(_ context.Context, limit int64) ([]models.PushRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int64(len(f.requests)) < limit {
		limit = int64(len(f.requests))
	}
	return append([]models.PushRequest(nil), f.requests[:limit]...), nil
}

func (f *fakePushRequestDB) DeleteOne(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, request := range f.requests {
		if request.ID == id {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			break
		}
	}
	return nil
}

type recordedEvent struct {
	userID string
	event  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) NotifyUser(userID string, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{userID: userID, event: event})
}

func (f *fakeNotifier) eventsFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if e.userID == userID {
			out = append(out, e.event)
		}
	}
	return out
}

type harness struct {
	crushes       *fakeCrushDB
	notifications *fakeNotificationDB
	slots         *fakeMatchSlotDB
	tokens        *fakePushTokenDB
	pushes        *fakePushRequestDB
	notifier      *fakeNotifier
	service       *matching.Service
}

func newHarness() *harness {
	h := &harness{
		crushes:       newFakeCrushDB(),
		notifications: newFakeNotificationDB(),
		slots:         newFakeMatchSlotDB(),
		tokens:        newFakePushTokenDB(),
		pushes:        &fakePushRequestDB{},
		notifier:      &fakeNotifier{},
	}
	h.service = matching.NewService(h.crushes, h.notifications, h.slots, h.tokens, h.pushes, h.notifier)
	return h
}

func user(id, name, email string) models.User {
	return models.User{ID: id, Details: models.UserDetails{Name: name, Email: email}}
}

func TestSendCrushRejectsSelf(t *testing.T) {
	h := newHarness()

	_, err := h.service.SendCrush(context.Background(), "alice", "alice")
	assert.Error(t, err)
}

func TestSendCrushOneWay(t *testing.T) {
	h := newHarness()

	isNewMatch, err := h.service.SendCrush(context.Background(), "alice", "bob")
	assert.NoError(t, err)
	assert.False(t, isNewMatch)

	err = h.service.FanOutCrush(context.Background(), user("alice", "Alice", "alice@campus.edu"), user("bob", "Bob", "bob@campus.edu"))
	assert.NoError(t, err)

	// bob gets one anonymous notification, alice gets nothing
	bobInbox, _ := h.notifications.FindByRecipient(context.Background(), "bob")
	assert.Len(t, bobInbox, 1)
	assert.Equal(t, models.NotificationTypeCrush, bobInbox[0].Type)
	assert.NotContains(t, bobInbox[0].Message, "Alice")

	aliceInbox, _ := h.notifications.FindByRecipient(context.Background(), "alice")
	assert.Empty(t, aliceInbox)

	// no match slot on either side
	_, err = h.slots.FindOne(context.Background(), "alice")
	assert.Error(t, err)
	_, err = h.slots.FindOne(context.Background(), "bob")
	assert.Error(t, err)
}

func TestSendCrushMutualDetection(t *testing.T) {
	h := newHarness()
	alice := user("alice", "Alice", "alice@campus.edu")
	bob := user("bob", "Bob", "bob@campus.edu")

	first, err := h.service.SendCrush(context.Background(), "alice", "bob")
	assert.NoError(t, err)
	assert.False(t, first, "the first send of a pair never reports a match")

	second, err := h.service.SendCrush(context.Background(), "bob", "alice")
	assert.NoError(t, err)
	assert.True(t, second, "the completing send reports the match")

	err = h.service.FanOutMatch(context.Background(), bob, alice)
	assert.NoError(t, err)

	// both sides got a mutual notification naming the counterpart
	aliceInbox, _ := h.notifications.FindByRecipient(context.Background(), "alice")
	assert.Len(t, aliceInbox, 1)
	assert.Equal(t, models.NotificationTypeMutualCrush, aliceInbox[0].Type)
	assert.Contains(t, aliceInbox[0].Message, "Bob")

	bobInbox, _ := h.notifications.FindByRecipient(context.Background(), "bob")
	assert.Len(t, bobInbox, 1)
	assert.Contains(t, bobInbox[0].Message, "Alice")

	// both sides got a match slot carrying the other's profile
	aliceSlot, err := h.slots.FindOne(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "bob", aliceSlot.Counterpart.UserID)

	bobSlot, err := h.slots.FindOne(context.Background(), "bob")
	assert.NoError(t, err)
	assert.Equal(t, "alice", bobSlot.Counterpart.UserID)

	assert.Equal(t, []string{"mutual_crush"}, h.notifier.eventsFor("alice"))
	assert.Equal(t, []string{"mutual_crush"}, h.notifier.eventsFor("bob"))
}

func TestCrushFanOutIdempotent(t *testing.T) {
	h := newHarness()
	alice := user("alice", "Alice", "alice@campus.edu")
	bob := user("bob", "Bob", "bob@campus.edu")

	for i := 0; i < 3; i++ {
		_, err := h.service.SendCrush(context.Background(), "alice", "bob")
		assert.NoError(t, err)
		assert.NoError(t, h.service.FanOutCrush(context.Background(), alice, bob))
	}

	bobInbox, _ := h.notifications.FindByRecipient(context.Background(), "bob")
	assert.Len(t, bobInbox, 1, "re-sending a crush must not duplicate the notification")
}

func TestMatchFanOutReplayConverges(t *testing.T) {
	h := newHarness()
	alice := user("alice", "Alice", "alice@campus.edu")
	bob := user("bob", "Bob", "bob@campus.edu")

	assert.NoError(t, h.service.FanOutMatch(context.Background(), alice, bob))
	assert.NoError(t, h.service.FanOutMatch(context.Background(), bob, alice))

	aliceInbox, _ := h.notifications.FindByRecipient(context.Background(), "alice")
	bobInbox, _ := h.notifications.FindByRecipient(context.Background(), "bob")
	assert.Len(t, aliceInbox, 1)
	assert.Len(t, bobInbox, 1)
}

func TestConcurrentMutualSendsDetectExactlyOneMatch(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness()

		var wg sync.WaitGroup
		results := make([]bool, 2)
		pairs := [][2]string{{"alice", "bob"}, {"bob", "alice"}}
		for j, pair := range pairs {
			wg.Add(1)
			go func(idx int, sender, target string) {
				defer wg.Done()
				isNewMatch, err := h.service.SendCrush(context.Background(), sender, target)
				assert.NoError(t, err)
				results[idx] = isNewMatch
			}(j, pair[0], pair[1])
		}
		wg.Wait()

		// exactly one side completes the pair, never zero, never both
		assert.NotEqual(t, results[0], results[1],
			"one racing send must observe the match and the other must not")
	}
}

func TestStatus(t *testing.T) {
	h := newHarness()

	_, _ = h.service.SendCrush(context.Background(), "alice", "bob")

	sent, received, err := h.service.Status(context.Background(), "alice", "bob")
	assert.NoError(t, err)
	assert.True(t, sent)
	assert.False(t, received)

	sent, received, err = h.service.Status(context.Background(), "bob", "alice")
	assert.NoError(t, err)
	assert.False(t, sent)
	assert.True(t, received)
}

func TestFanOutEnqueuesPushOnlyWithToken(t *testing.T) {
	h := newHarness()
	alice := user("alice", "Alice", "alice@campus.edu")
	bob := user("bob", "Bob", "bob@campus.edu")

	// bob has a registered device, alice does not
	_ = h.tokens.Upsert(context.Background(), models.PushToken{UserID: "bob", Token: "ExponentPushToken[bob]"})

	assert.NoError(t, h.service.FanOutCrush(context.Background(), alice, bob))
	requests, _ := h.pushes.FindPending(context.Background(), 10)
	assert.Len(t, requests, 1)
	assert.Equal(t, "ExponentPushToken[bob]", requests[0].Token)

	assert.NoError(t, h.service.FanOutCrush(context.Background(), bob, alice))
	requests, _ = h.pushes.FindPending(context.Background(), 10)
	assert.Len(t, requests, 1, "a user without a token gets no push enqueued")
}
