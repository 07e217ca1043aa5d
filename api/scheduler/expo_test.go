package scheduler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/findcrush/campus-crush-api/api/scheduler"
)

func TestSendExpoPushMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var messages []scheduler.ExpoPushMessage
		json.NewDecoder(r.Body).Decode(&messages)

		tickets := make([]map[string]interface{}, 0, len(messages))
		for _, m := range messages {
			if m.To == "ExponentPushToken[dead]" {
				tickets = append(tickets, map[string]interface{}{
					"status":  "error",
					"message": "device not registered",
					"details": map[string]string{"error": "DeviceNotRegistered"},
				})
				continue
			}
			tickets = append(tickets, map[string]interface{}{"status": "ok"})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": tickets})
	}))
	defer server.Close()

	os.Setenv("EXPO_PUSH_URL", server.URL)
	defer os.Unsetenv("EXPO_PUSH_URL")

	tickets, err := scheduler.SendExpoPushMessages([]scheduler.ExpoPushMessage{
		{To: "ExponentPushToken[alive]", Title: "New Crush Alert! 💘"},
		{To: "ExponentPushToken[dead]", Title: "New Crush Alert! 💘"},
	})
	assert.NoError(t, err)
	assert.Len(t, tickets, 2)

	assert.True(t, tickets[0].OK())
	assert.False(t, tickets[0].TokenInvalid())

	assert.False(t, tickets[1].OK())
	assert.True(t, tickets[1].TokenInvalid())
}

func TestSendExpoPushMessagesEmpty(t *testing.T) {
	tickets, err := scheduler.SendExpoPushMessages(nil)
	assert.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestSendExpoPushMessagesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	os.Setenv("EXPO_PUSH_URL", server.URL)
	defer os.Unsetenv("EXPO_PUSH_URL")

	tickets, err := scheduler.SendExpoPushMessages([]scheduler.ExpoPushMessage{
		{To: "ExponentPushToken[alive]"},
	})
	assert.Error(t, err)
	// positions stay aligned even on failure so callers can walk the results
	assert.Len(t, tickets, 1)
	assert.False(t, tickets[0].OK())
}

func TestSendExpoPushMessagesTicketCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	os.Setenv("EXPO_PUSH_URL", server.URL)
	defer os.Unsetenv("EXPO_PUSH_URL")

	tickets, err := scheduler.SendExpoPushMessages([]scheduler.ExpoPushMessage{
		{To: "ExponentPushToken[alive]"},
	})
	assert.Error(t, err)
	assert.Len(t, tickets, 1)
}
