package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/logging"
	"github.com/civiclens/civic-complaints-api/models"
)

// Config holds the project config values
type Config struct {
	URL            string
	DatabaseName   string
	BaseURL        string
	Port           string
	Environment    string
	JWTSecret      string
	SendgridAPIKey string
	CloudinaryURL  string
}

// New sets up all config related services
func New() *Config {
	// load a local .env if present, real deployments set env vars directly
	_ = godotenv.Load()

	environment := getEnv("ENV", "development")

	//setup zap logger and replace default logger
	logger := logging.New(environment)
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger.Desugar())

	return &Config{
		URL:            os.Getenv("DB_URI"),
		DatabaseName:   getEnv("DB_NAME", "civic-complaints"),
		BaseURL:        os.Getenv("BASE_URL"),
		Port:           getEnv("PORT", "8080"),
		Environment:    environment,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		CloudinaryURL:  os.Getenv("CLOUDINARY_URL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Message: message,
		Error:   errString(err),
	}})
	w.Write(b)
}

// WriteError maps the domain error taxonomy onto HTTP status codes.
// Validation errors list every violated field, conflicts name the field.
// Anything outside the taxonomy is an internal error; the detail is withheld
// from the caller in production.
func WriteError(w http.ResponseWriter, err error, environment string) {
	var vErr *models.ValidationError
	var cErr *models.ConflictError

	switch {
	case errors.As(err, &vErr):
		zap.S().Debugw("validation failed", "fields", vErr.Fields)
		w.WriteHeader(http.StatusBadRequest)
		b, _ := json.Marshal(map[string]interface{}{
			"message": vErr.Message,
			"errors":  vErr.Fields,
		})
		w.Write(b)
	case errors.As(err, &cErr):
		w.WriteHeader(http.StatusConflict)
		b, _ := json.Marshal(map[string]string{
			"message": cErr.Error(),
			"field":   cErr.Field,
		})
		w.Write(b)
	case errors.Is(err, models.ErrNotFound):
		ErrorStatus("resource not found", http.StatusNotFound, w, err)
	case errors.Is(err, models.ErrForbidden):
		ErrorStatus("not authorized", http.StatusForbidden, w, err)
	case errors.Is(err, models.ErrUnauthenticated):
		ErrorStatus("unauthenticated", http.StatusUnauthorized, w, err)
	default:
		if environment == "production" {
			zap.S().With(err).Error("internal error")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "internal server error"}`))
			return
		}
		ErrorStatus("internal server error", http.StatusInternalServerError, w, err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
