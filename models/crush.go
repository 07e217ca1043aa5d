package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Crush holds the structure for the crushes collection in mongo. One document
// per (sender, target) pair, enforced by a unique compound index; re-sending
// overwrites the timestamp instead of creating a second record.
type Crush struct {
	SenderID  string             `json:"senderId" bson:"senderId"`
	TargetID  string             `json:"targetId" bson:"targetId"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
