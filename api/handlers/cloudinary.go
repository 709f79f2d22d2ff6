package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/models"
)

// Uploader stores complaint images in the media CDN
type Uploader interface {
	Upload(ctx context.Context, data string) (models.ComplaintImage, error)
	Destroy(ctx context.Context, publicID string) error
}

type cloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an Uploader from a cloudinary:// URL. A nil
// uploader is returned when no URL is configured, image uploads are then
// skipped rather than failing complaint creation.
func NewCloudinaryUploader(url string) Uploader {
	if url == "" {
		return nil
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		zap.S().With(err).Warn("failed to init cloudinary, image uploads disabled")
		return nil
	}
	return &cloudinaryUploader{cld: cld}
}

func (u *cloudinaryUploader) Upload(ctx context.Context, data string) (models.ComplaintImage, error) {
	resp, err := u.cld.Upload.Upload(ctx, data, uploader.UploadParams{Folder: "civic-complaints"})
	if err != nil {
		return models.ComplaintImage{}, err
	}
	return models.ComplaintImage{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (u *cloudinaryUploader) Destroy(ctx context.Context, publicID string) error {
	_, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct{}

// GenerateSignature generates a signature for direct browser uploads
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
