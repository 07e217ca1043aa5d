package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ChatMessage holds the structure for the chatMessages collection in mongo.
// Messages are append only; there is no edit or delete.
type ChatMessage struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ChannelID  string             `json:"channelId" bson:"channelId"`
	SenderID   string             `json:"senderId" bson:"senderId"`
	SenderName string             `json:"senderName" bson:"senderName"`
	Text       string             `json:"text" bson:"text"`
	Timestamp  primitive.DateTime `json:"timestamp" bson:"timestamp"`
}
