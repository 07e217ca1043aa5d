package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/models"
)

// maxThoughtLength caps a feed post, matching the client-side composer limit
const maxThoughtLength = 500

// Thought exported for testing purposes
type Thought struct {
	DB  databases.ThoughtDatabase
	UDB databases.UserDatabase
}

// CreateThoughtHandler posts an anonymous thought to the feed
func (t Thought) CreateThoughtHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AuthorID string `json:"authorId"`
		Content  string `json:"content"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		config.ErrorStatus("empty thought", http.StatusBadRequest, w, fmt.Errorf("content is required"))
		return
	}
	if utf8.RuneCountInString(content) > maxThoughtLength {
		config.ErrorStatus("thought too long", http.StatusBadRequest, w, fmt.Errorf("content exceeds %d characters", maxThoughtLength))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	thought := models.Thought{
		ID:        primitive.NewObjectID(),
		Content:   content,
		AuthorID:  body.AuthorID,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := t.DB.InsertOne(ctx, thought); err != nil {
		config.ErrorStatus("failed to create thought", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(thought)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ListThoughtsHandler returns the feed newest-first. Authors stay anonymous;
// the optional viewer param lets the client mark which posts the viewer liked.
func (t Thought) ListThoughtsHandler(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("viewer")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get thoughts", http.StatusInternalServerError, w, err)
		return
	}

	type feedEntry struct {
		models.Thought
		LikedByViewer bool `json:"likedByViewer"`
	}
	entries := make([]feedEntry, 0, len(dbResp))
	for _, thought := range dbResp {
		entries = append(entries, feedEntry{
			Thought:       thought,
			LikedByViewer: viewerID != "" && thought.LikedBy[viewerID],
		})
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MyThoughtsHandler returns the posts authored by the user, the only view
// where authorship is visible
func (t Thought) MyThoughtsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.Find(ctx, bson.M{"authorId": userID})
	if err != nil {
		config.ErrorStatus("failed to get thoughts", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Thought{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LikeThoughtHandler records a like. Liking twice is a no-op, not an error.
func (t Thought) LikeThoughtHandler(w http.ResponseWriter, r *http.Request) {
	t.toggleLike(w, r, func(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
		return t.DB.Like(ctx, id, userID)
	})
}

// UnlikeThoughtHandler removes a like. Unliking something never liked is a
// no-op, not an error.
func (t Thought) UnlikeThoughtHandler(w http.ResponseWriter, r *http.Request) {
	t.toggleLike(w, r, func(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
		return t.DB.Unlike(ctx, id, userID)
	})
}

func (t Thought) toggleLike(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID, string) (bool, error)) {
	thoughtID, err := primitive.ObjectIDFromHex(mux.Vars(r)["thought_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	changed, err := op(ctx, thoughtID, body.UserID)
	if err != nil {
		config.ErrorStatus("failed to update like", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"changed": changed})
}

// CommentThoughtHandler appends a comment to a thought
func (t Thought) CommentThoughtHandler(w http.ResponseWriter, r *http.Request) {
	thoughtID, err := primitive.ObjectIDFromHex(mux.Vars(r)["thought_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	var body struct {
		AuthorID string `json:"authorId"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		config.ErrorStatus("empty comment", http.StatusBadRequest, w, fmt.Errorf("content is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// comments carry the author's anonymous alias, never their real name
	authorName := "Anonymous"
	if author, err := t.UDB.FindOne(ctx, bson.M{"_id": body.AuthorID}); err == nil && author.Details.AnonymousName != "" {
		authorName = author.Details.AnonymousName
	}

	comment := models.ThoughtComment{
		Content:    strings.TrimSpace(body.Content),
		AuthorID:   body.AuthorID,
		AuthorName: authorName,
		CreatedAt:  primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := t.DB.AddComment(ctx, thoughtID, comment); err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(comment)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DeleteThoughtHandler removes a thought when the caller authored it
func (t Thought) DeleteThoughtHandler(w http.ResponseWriter, r *http.Request) {
	thoughtID, err := primitive.ObjectIDFromHex(mux.Vars(r)["thought_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	authorID := r.URL.Query().Get("authorId")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := t.DB.DeleteOne(ctx, thoughtID, authorID)
	if err != nil {
		config.ErrorStatus("failed to delete thought", http.StatusInternalServerError, w, err)
		return
	}
	if !deleted {
		config.ErrorStatus("thought not found", http.StatusNotFound, w, fmt.Errorf("no thought owned by caller"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "thought deleted"})
}
