package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
)

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct{}

// GenerateSignature generates a signature for direct profile photo uploads.
// The client uploads straight to Cloudinary; the API only signs the request so
// the secret never ships with the app.
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	// params must be in lexicographic order for Cloudinary to accept the signature
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "profile-photos"
	}
	payload := "folder=" + folder + "&timestamp=" + timestamp + "&upload_preset=" + uploadPreset

	// Create the signature
	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte(payload))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
		"folder":    folder,
	}

	// attach the upload endpoint so the client needs no cloudinary config of
	// its own
	cld, err := cloudinary.NewFromParams(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		apiSecret,
	)
	if err != nil {
		zap.S().Warnw("cloudinary config incomplete, omitting upload url", "error", err)
	} else {
		response["apiKey"] = cld.Config.Cloud.APIKey
		response["cloudName"] = cld.Config.Cloud.CloudName
		response["uploadUrl"] = fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cld.Config.Cloud.CloudName)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
