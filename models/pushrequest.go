package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PushRequest holds the structure for the pushRequests collection in mongo.
// Fan-out enqueues one per deliverable notification; the scheduler sweep sends
// and then deletes the request whether or not delivery succeeded, so a bad
// request can never be reprocessed forever.
type PushRequest struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Token     string             `json:"token" bson:"token"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	Data      map[string]string  `json:"data" bson:"data,omitempty"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
