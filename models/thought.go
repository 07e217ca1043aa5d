package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Thought holds the structure for the thoughts collection in mongo. Posts are
// anonymous on read; AuthorID is only used for the "my posts" view and for
// delete authorization, it is never serialized to the feed.
type Thought struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Content   string             `json:"content" bson:"content"`
	AuthorID  string             `json:"-" bson:"authorId"`
	Likes     int                `json:"likes" bson:"likes"`
	LikedBy   map[string]bool    `json:"-" bson:"likedBy,omitempty"`
	Comments  []ThoughtComment   `json:"comments" bson:"comments,omitempty"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// ThoughtComment is a single comment appended to a thought.
type ThoughtComment struct {
	Content    string             `json:"content" bson:"content"`
	AuthorID   string             `json:"authorId" bson:"authorId"`
	AuthorName string             `json:"authorName" bson:"authorName"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
