package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the user collection in mongo. The document id
// is the identity-provider uid, so profile lookups never need a secondary index.
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Name          string             `json:"name" bson:"name"`
	Gender        string             `json:"gender" bson:"gender"`
	Branch        string             `json:"branch" bson:"branch"`
	Year          string             `json:"year" bson:"year"`
	Residence     string             `json:"residence" bson:"residence"`
	Bio           string             `json:"bio" bson:"bio"`
	Email         string             `json:"email" bson:"email"`
	Password      string             `json:"password,omitempty" bson:"password"`
	PhotoURL      string             `json:"photoURL" bson:"photoURL"`
	AnonymousName string             `json:"anonymousName" bson:"anonymousName"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ProfileSnapshot is the public slice of a profile that gets copied into a
// match slot. No email, no password hash.
type ProfileSnapshot struct {
	UserID   string `json:"userId" bson:"userId"`
	Name     string `json:"name" bson:"name"`
	Branch   string `json:"branch" bson:"branch"`
	Year     string `json:"year" bson:"year"`
	Bio      string `json:"bio" bson:"bio"`
	PhotoURL string `json:"photoURL" bson:"photoURL"`
}

// Snapshot builds the public profile snapshot for a user. Missing display
// fields degrade to placeholders instead of failing the caller.
func (u User) Snapshot() ProfileSnapshot {
	name := u.Details.Name
	if name == "" {
		name = "A secret admirer"
	}
	return ProfileSnapshot{
		UserID:   u.ID,
		Name:     name,
		Branch:   u.Details.Branch,
		Year:     u.Details.Year,
		Bio:      u.Details.Bio,
		PhotoURL: u.Details.PhotoURL,
	}
}

// Initial returns the one-letter avatar fallback used when no photo is set.
func (u User) Initial() string {
	if u.Details.Name == "" {
		return "?"
	}
	return string([]rune(u.Details.Name)[0:1])
}
