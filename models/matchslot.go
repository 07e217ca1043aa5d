package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MatchSlot holds the structure for the matchSlots collection in mongo. One
// slot per user, overwritten on every new match and deleted once the client
// has shown the "It's a match!" popup.
type MatchSlot struct {
	UserID      string             `json:"_id" bson:"_id"`
	Counterpart ProfileSnapshot    `json:"counterpart" bson:"counterpart"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
