package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/findcrush/campus-crush-api/config"
	"github.com/findcrush/campus-crush-api/models"
)

// Contact exported for testing purposes
type Contact struct{}

// ContactHandler forwards a feedback form submission to the team inbox
func (c Contact) ContactHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		config.ErrorStatus("empty message", http.StatusBadRequest, w, fmt.Errorf("message is required"))
		return
	}

	from := mail.NewEmail("Campus Crush", "no-reply@campuscrush.app")
	to := mail.NewEmail("Campus Crush Team", os.Getenv("CONTACT_INBOX"))
	subject := "Feedback from " + body.Name
	plainText := fmt.Sprintf("From: %s <%s>\n\n%s", body.Name, body.Email, body.Message)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		config.ErrorStatus("failed to send feedback", http.StatusInternalServerError, w, err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		config.ErrorStatus("failed to send feedback", http.StatusBadGateway, w, fmt.Errorf("sendgrid status %d", response.StatusCode))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageError{Message: "feedback sent"})
}
