package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification types written by crush fan-out.
const (
	NotificationTypeCrush       = "crush"
	NotificationTypeMutualCrush = "mutual_crush"
)

// Notification holds the structure for the notifications collection in mongo.
// Fan-out writes use a deterministic ID derived from the crush event so a
// replayed fan-out upserts the same document instead of appending a duplicate.
type Notification struct {
	ID          string             `json:"_id" bson:"_id"`
	RecipientID string             `json:"recipientId" bson:"recipientId"`
	Type        string             `json:"type" bson:"type"`
	Message     string             `json:"message" bson:"message"`
	// FromUserID is never serialized: a crush notification must stay anonymous
	// to its recipient, the sender id exists only for server-side bookkeeping.
	FromUserID string `json:"-" bson:"fromUserId"`
	// LegacyPath keeps the realtime-database inbox location
	// (userNotifications/<sanitizedEmail>/notifications) for clients that
	// still sync against the old store.
	LegacyPath string             `json:"legacyPath,omitempty" bson:"legacyPath,omitempty"`
	Read       bool               `json:"read" bson:"read"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
