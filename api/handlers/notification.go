package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/api"
	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/databases"
	"github.com/findcrush/campus-crush-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// NotificationHub tracks connected users (userId -> *websocket.Conn) and
// pushes inbox events to them as they happen. It satisfies matching.Notifier.
type NotificationHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleNotificationsWebSocket upgrades the connection and registers the user
// for realtime inbox events
func (h *NotificationHub) HandleNotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Debugw("user connected to notifications websocket", "userId", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Debugw("user disconnected from notifications websocket", "userId", userID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// NotifyUser sends an event to one connected user. A user who is not connected
// simply misses the realtime ping; the inbox document is the source of truth.
func (h *NotificationHub) NotifyUser(userID string, event string, payload interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		zap.S().Debugw("dropping dead websocket client", "userId", userID, "error", err)
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		conn.Close()
	}
}

// Notification exported for testing purposes
type Notification struct {
	DB databases.NotificationDatabase
}

// GetUserNotificationsHandler returns the user's inbox newest-first. Opening
// the inbox marks everything read in one batched update, so the badge count
// resets atomically with the read.
func (n Notification) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := n.DB.FindByRecipient(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Notification{}
	}

	modified, err := n.DB.MarkAllRead(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to mark notifications read", http.StatusInternalServerError, w, err)
		return
	}
	if modified > 0 {
		zap.S().Debugw("marked notifications read", "userId", userID, "count", modified)
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// BadgeHandler returns the unread notification count for the tab badge
func (n Notification) BadgeHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := n.DB.CountUnread(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to count unread notifications", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int64{"unread": count})
}

// DeleteNotificationHandler removes one inbox entry. The recipient filter
// stops a user from deleting someone else's notification by guessing ids.
func (n Notification) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	notificationID := mux.Vars(r)["notification_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := n.DB.DeleteOne(ctx, userID, notificationID)
	if err != nil {
		config.ErrorStatus("failed to delete notification", http.StatusInternalServerError, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "notification deleted"})
}
