package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	defaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	expoBatchLimit     = 100
)

// ExpoPushMessage represents a single push notification message for the Expo push API
type ExpoPushMessage struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Sound     string                 `json:"sound,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

// ExpoPushTicket is Expo's per-message receipt. Order matches the request
// batch, so ticket i belongs to message i.
type ExpoPushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

// OK reports whether the message was accepted by Expo
func (t ExpoPushTicket) OK() bool {
	return t.Status == "ok"
}

// TokenInvalid reports whether the ticket says the target token is dead and
// should be deleted from storage
func (t ExpoPushTicket) TokenInvalid() bool {
	return t.Details.Error == "DeviceNotRegistered"
}

type expoPushResponse struct {
	Data []ExpoPushTicket `json:"data"`
}

// expoPushURL allows tests to point the client at a local server
func expoPushURL() string {
	if url := os.Getenv("EXPO_PUSH_URL"); url != "" {
		return url
	}
	return defaultExpoPushURL
}

// SendExpoPushMessages relays messages to the Expo push API and returns one
// ticket per message, in order. Messages are batched in groups of 100 per the
// Expo API limit; a failed batch yields error tickets so callers can still
// walk the results positionally.
func SendExpoPushMessages(messages []ExpoPushMessage) ([]ExpoPushTicket, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	tickets := make([]ExpoPushTicket, 0, len(messages))
	var firstErr error
	for i := 0; i < len(messages); i += expoBatchLimit {
		end := i + expoBatchLimit
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[i:end]

		batchTickets, err := sendExpoBatch(batch)
		if err != nil {
			zap.S().Errorf("Failed to send Expo push batch (messages %d-%d): %v", i, end-1, err)
			if firstErr == nil {
				firstErr = err
			}
			// pad with error tickets to keep positions aligned
			for range batch {
				tickets = append(tickets, ExpoPushTicket{Status: "error", Message: err.Error()})
			}
			continue
		}
		tickets = append(tickets, batchTickets...)
	}

	return tickets, firstErr
}

func sendExpoBatch(messages []ExpoPushMessage) ([]ExpoPushTicket, error) {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push messages: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequest("POST", expoPushURL(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}

	var parsed expoPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	if len(parsed.Data) != len(messages) {
		return nil, fmt.Errorf("expo push API returned %d tickets for %d messages", len(parsed.Data), len(messages))
	}

	zap.S().Infof("Successfully sent %d push notification(s) via Expo", len(messages))
	return parsed.Data, nil
}
