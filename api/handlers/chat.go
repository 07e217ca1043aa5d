package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/matching"
	"github.com/findcrush/campus-crush-api/models"
)

// ChatHub tracks the open websocket connections per chat channel and fans new
// messages out to every participant currently watching that channel.
type ChatHub struct {
	DB       databases.ChatDatabase
	mutex    sync.Mutex
	channels map[string]map[*websocket.Conn]bool
}

// NewChatHub creates an empty chat hub over the given message log
func NewChatHub(db databases.ChatDatabase) *ChatHub {
	return &ChatHub{
		DB:       db,
		channels: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *ChatHub) register(channelID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.channels[channelID] == nil {
		h.channels[channelID] = make(map[*websocket.Conn]bool)
	}
	h.channels[channelID][conn] = true
}

func (h *ChatHub) unregister(channelID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.channels[channelID], conn)
	if len(h.channels[channelID]) == 0 {
		delete(h.channels, channelID)
	}
}

// Broadcast pushes a stored message to every open connection on its channel
func (h *ChatHub) Broadcast(message models.ChatMessage) {
	h.mutex.Lock()
	conns := make([]*websocket.Conn, 0, len(h.channels[message.ChannelID]))
	for conn := range h.channels[message.ChannelID] {
		conns = append(conns, conn)
	}
	h.mutex.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(message); err != nil {
			zap.S().Debugw("dropping dead chat websocket client", "channelId", message.ChannelID, "error", err)
			h.unregister(message.ChannelID, conn)
			conn.Close()
		}
	}
}

// Chat exported for testing purposes
type Chat struct {
	DB  databases.ChatDatabase
	CDB databases.CrushDatabase
	UDB databases.UserDatabase
	Hub *ChatHub
}

// channelParticipants splits a channel id back into its two member uids
func channelParticipants(channelID string) (string, string, error) {
	parts := strings.Split(channelID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed channel id")
	}
	return parts[0], parts[1], nil
}

// authorizeChannel verifies that userID belongs to the channel and that the
// pair behind it is mutual. Chat only exists between matched users.
func (c Chat) authorizeChannel(r *http.Request, channelID, userID string) error {
	a, b, err := channelParticipants(channelID)
	if err != nil {
		return err
	}
	if userID != a && userID != b {
		return fmt.Errorf("user %s is not a member of this channel", userID)
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	forward, err := c.CDB.Exists(ctx, a, b)
	if err != nil {
		return err
	}
	reverse, err := c.CDB.Exists(ctx, b, a)
	if err != nil {
		return err
	}
	if !forward || !reverse {
		return fmt.Errorf("channel pair is not matched")
	}
	return nil
}

// ResolveChannelHandler returns the canonical channel id for a matched pair.
// Either participant gets the same id regardless of argument order.
func (c Chat) ResolveChannelHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	otherID := mux.Vars(r)["other_id"]

	channelID := matching.ChannelID(userID, otherID)
	if err := c.authorizeChannel(r, channelID, userID); err != nil {
		config.ErrorStatus("chat requires a mutual match", http.StatusForbidden, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"channelId": channelID})
}

// MessagesHandler returns a channel's history oldest-first
func (c Chat) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channel_id"]
	userID := r.URL.Query().Get("userId")

	if err := c.authorizeChannel(r, channelID, userID); err != nil {
		config.ErrorStatus("chat requires a mutual match", http.StatusForbidden, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindByChannel(ctx, channelID)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ChatMessage{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PostMessageHandler appends a message to the channel and broadcasts it to
// connected participants
func (c Chat) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channel_id"]

	var body struct {
		SenderID string `json:"senderId"`
		Text     string `json:"text"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		config.ErrorStatus("empty message", http.StatusBadRequest, w, fmt.Errorf("text is required"))
		return
	}

	if err := c.authorizeChannel(r, channelID, body.SenderID); err != nil {
		config.ErrorStatus("chat requires a mutual match", http.StatusForbidden, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	senderName := ""
	if sender, err := c.UDB.FindOne(ctx, bson.M{"_id": body.SenderID}); err == nil {
		senderName = sender.Snapshot().Name
	}

	message := models.ChatMessage{
		ID:         primitive.NewObjectID(),
		ChannelID:  channelID,
		SenderID:   body.SenderID,
		SenderName: senderName,
		Text:       body.Text,
		Timestamp:  primitive.NewDateTimeFromTime(time.Now()),
	}
	if err := c.DB.InsertOne(ctx, message); err != nil {
		config.ErrorStatus("failed to store message", http.StatusInternalServerError, w, err)
		return
	}

	c.Hub.Broadcast(message)

	b, err := json.Marshal(message)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// HandleChatWebSocket streams a channel: it replays the stored history to the
// new connection, then forwards messages as they are posted
func (c Chat) HandleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channel_id"]
	userID := r.URL.Query().Get("userId")

	if err := c.authorizeChannel(r, channelID, userID); err != nil {
		http.Error(w, "chat requires a mutual match", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	// Register before the replay so a message posted mid-replay is not lost.
	// The client dedupes on message id.
	c.Hub.register(channelID, conn)
	zap.S().Debugw("user connected to chat websocket", "channelId", channelID, "userId", userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	history, err := c.DB.FindByChannel(ctx, channelID)
	cancel()
	if err == nil {
		for _, message := range history {
			if err := conn.WriteJSON(message); err != nil {
				break
			}
		}
	}

	for {
		if _, _, err := conn.NextReader(); err != nil {
			c.Hub.unregister(channelID, conn)
			conn.Close()
			zap.S().Debugw("user disconnected from chat websocket", "channelId", channelID, "userId", userID)
			break
		}
	}
}
