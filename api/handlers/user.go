package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/models"
)

// User exported for testing purposes
type User struct {
	DB   databases.UserDatabase
	PTDB databases.PushTokenDatabase
}

// UserHandler returns a user profile given a userID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	zap.S().Debugf("user_id: %v", userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	dbResp.Details.Password = ""
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UserCreateHandler creates a user profile for a freshly signed-up account
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var user models.User
	err := json.NewDecoder(r.Body).Decode(&user)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if user.ID == "" || user.Details.Email == "" {
		config.ErrorStatus("missing user id or email", http.StatusBadRequest, w, fmt.Errorf("both _id and user.email are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// check if the user already exists
	existingUser, _ := u.DB.FindOne(ctx, bson.M{"user.email": user.Details.Email})
	if existingUser != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	// hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	user.Details.Password = string(hashedPassword)

	if user.Details.AnonymousName == "" {
		user.Details.AnonymousName = "Anonymous"
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	user.Details.CreatedAt = now
	user.Details.UpdatedAt = now

	err = u.DB.InsertOne(ctx, user.ID, user.Details)
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.MessageError{Message: "user created"})
}

// UserCheckEmailHandler reports whether a profile exists for an email, used by
// the client before kicking off account creation
func (u User) UserCheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var body struct {
		Email string `json:"email"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"user.email": body.Email})
	if err != nil {
		config.ErrorStatus("failed to check email", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"exists": count > 0})
}

// UpdateUserByIDHandler updates the editable profile fields of a user. Email
// and password never change through this path.
func (u User) UpdateUserByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var details models.UserDetails
	err := json.NewDecoder(r.Body).Decode(&details)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	update := bson.M{"$set": bson.M{
		"user.name":          details.Name,
		"user.gender":        details.Gender,
		"user.branch":        details.Branch,
		"user.year":          details.Year,
		"user.residence":     details.Residence,
		"user.bio":           details.Bio,
		"user.photoURL":      details.PhotoURL,
		"user.anonymousName": details.AnonymousName,
		"user.updatedAt":     primitive.NewDateTimeFromTime(time.Now()),
	}}
	err = u.DB.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "user updated"})
}

// UsersDiscoverHandler returns the browsable profile directory. The caller's
// own profile is excluded when the exclude query param carries their id.
func (u User) UsersDiscoverHandler(w http.ResponseWriter, r *http.Request) {
	excludeID := r.URL.Query().Get("exclude")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if excludeID != "" {
		filter = bson.M{"_id": bson.M{"$ne": excludeID}}
	}
	dbResp, err := u.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
		return
	}
	// Because the frontend requires that the data elements inside models.User exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.User{}
	}
	snapshots := make([]models.ProfileSnapshot, 0, len(dbResp))
	for _, user := range dbResp {
		snapshots = append(snapshots, user.Snapshot())
	}

	b, err := json.Marshal(snapshots)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RegisterPushTokenHandler stores the device push token for a user, replacing
// whatever token an earlier device registered
func (u User) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var body struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if body.Token == "" {
		config.ErrorStatus("missing push token", http.StatusBadRequest, w, fmt.Errorf("token is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = u.PTDB.Upsert(ctx, models.PushToken{
		UserID:   userID,
		Token:    body.Token,
		Platform: body.Platform,
	})
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "push token registered"})
}

// RemovePushTokenHandler deletes the stored push token on logout
func (u User) RemovePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := u.PTDB.DeleteByUserID(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to remove push token", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "push token removed"})
}
