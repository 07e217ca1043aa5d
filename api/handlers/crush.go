package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/matching"
	"github.com/findcrush/campus-crush-api/models"
)

// Crush exported for testing purposes
type Crush struct {
	DB      databases.UserDatabase
	CDB     databases.CrushDatabase
	MSDB    databases.MatchSlotDatabase
	Matcher *matching.Service
}

// crushListEntry is one row of the sent-crushes or admirers list. Admirer
// profiles stay hidden until the pair is mutual.
type crushListEntry struct {
	Profile *models.ProfileSnapshot `json:"profile,omitempty"`
	Mutual  bool                    `json:"mutual"`
}

// SendCrushHandler records a crush and, when it completes a mutual pair, fans
// the match out to both sides. The response only tells the sender whether this
// send created a new match; a one-way crush reveals nothing.
func (c Crush) SendCrushHandler(w http.ResponseWriter, r *http.Request) {
	senderID := mux.Vars(r)["user_id"]

	var body struct {
		TargetID string `json:"targetId"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if body.TargetID == "" {
		config.ErrorStatus("missing target", http.StatusBadRequest, w, fmt.Errorf("targetId is required"))
		return
	}
	if body.TargetID == senderID {
		config.ErrorStatus("cannot crush on yourself", http.StatusBadRequest, w, fmt.Errorf("sender and target must differ"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sender, err := c.DB.FindOne(ctx, bson.M{"_id": senderID})
	if err != nil {
		config.ErrorStatus("failed to get sender", http.StatusNotFound, w, err)
		return
	}
	target, err := c.DB.FindOne(ctx, bson.M{"_id": body.TargetID})
	if err != nil {
		config.ErrorStatus("failed to get target", http.StatusNotFound, w, err)
		return
	}

	isNewMatch, err := c.Matcher.SendCrush(ctx, senderID, body.TargetID)
	if err != nil {
		config.ErrorStatus("failed to record crush", http.StatusInternalServerError, w, err)
		return
	}

	if isNewMatch {
		err = c.Matcher.FanOutMatch(ctx, *sender, *target)
	} else {
		err = c.Matcher.FanOutCrush(ctx, *sender, *target)
	}
	if err != nil {
		// The crush is recorded; a re-send replays fan-out onto the same
		// documents, so surfacing the error is safe.
		config.ErrorStatus("failed to deliver crush notifications", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Debugw("crush recorded", "senderId", senderID, "targetId", body.TargetID, "isNewMatch", isNewMatch)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"isNewMatch": isNewMatch})
}

// SentCrushesHandler lists the profiles the user has crushed on, with a mutual
// flag per entry
func (c Crush) SentCrushesHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	crushes, err := c.CDB.FindBySender(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to get sent crushes", http.StatusInternalServerError, w, err)
		return
	}

	entries := make([]crushListEntry, 0, len(crushes))
	for _, crush := range crushes {
		target, err := c.DB.FindOne(ctx, bson.M{"_id": crush.TargetID})
		if err != nil {
			// the profile may have been deleted since the crush was sent
			zap.S().Debugw("skipping crush with missing target", "targetId", crush.TargetID)
			continue
		}
		mutual, err := c.CDB.Exists(ctx, crush.TargetID, userID)
		if err != nil {
			config.ErrorStatus("failed to check mutual status", http.StatusInternalServerError, w, err)
			return
		}
		snapshot := target.Snapshot()
		entries = append(entries, crushListEntry{Profile: &snapshot, Mutual: mutual})
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReceivedCrushesHandler lists who crushed on the user. Identity is only
// attached for mutual pairs; a one-way admirer shows up as an anonymous row.
func (c Crush) ReceivedCrushesHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	crushes, err := c.CDB.FindByTarget(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to get admirers", http.StatusInternalServerError, w, err)
		return
	}

	entries := make([]crushListEntry, 0, len(crushes))
	for _, crush := range crushes {
		mutual, err := c.CDB.Exists(ctx, userID, crush.SenderID)
		if err != nil {
			config.ErrorStatus("failed to check mutual status", http.StatusInternalServerError, w, err)
			return
		}
		entry := crushListEntry{Mutual: mutual}
		if mutual {
			sender, err := c.DB.FindOne(ctx, bson.M{"_id": crush.SenderID})
			if err == nil {
				snapshot := sender.Snapshot()
				entry.Profile = &snapshot
			}
		}
		entries = append(entries, entry)
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CrushStatusHandler reports the crush relationship between the viewer and a
// profile, so the client can render the heart state
func (c Crush) CrushStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	targetID := mux.Vars(r)["target_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sent, received, err := c.Matcher.Status(ctx, userID, targetID)
	if err != nil {
		config.ErrorStatus("failed to get crush status", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{
		"sent":     sent,
		"received": received,
		"mutual":   sent && received,
	})
}

// MatchSlotHandler returns the user's pending match celebration record, or 404
// when no match is waiting
func (c Crush) MatchSlotHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	slot, err := c.MSDB.FindOne(ctx, userID)
	if err != nil {
		config.ErrorStatus("no pending match", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(slot)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ConsumeMatchSlotHandler clears the pending match record once the client has
// shown the celebration screen
func (c Crush) ConsumeMatchSlotHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := c.MSDB.Delete(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to consume match slot", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "match slot consumed"})
}
