package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civiclens/civic-complaints-api/api"
	"github.com/civiclens/civic-complaints-api/config"
	"github.com/civiclens/civic-complaints-api/models"

	"github.com/civiclens/civic-complaints-api/databases"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// Auth handles registration, login and profile access
type Auth struct {
	DB     databases.UserDatabase
	Config config.Config
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterHandler creates a new citizen account and returns a signed token
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	// collect every violated field, not just the first
	var fields []string
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, "name")
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		fields = append(fields, "email")
	}
	if !phonePattern.MatchString(strings.TrimSpace(req.Phone)) {
		fields = append(fields, "phone")
	}
	if strings.TrimSpace(req.Address) == "" {
		fields = append(fields, "address")
	}
	if len(req.Password) < 6 {
		fields = append(fields, "password")
	}
	if len(fields) > 0 {
		config.WriteError(w, models.NewValidationError(fields...), a.Config.Environment)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := a.DB.FindOne(ctx, bson.M{"email": email}); err == nil {
		config.WriteError(w, &models.ConflictError{Resource: "user", Field: "email"}, a.Config.Environment)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		Password:  string(hash),
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := a.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user registered", "email", user.Email)

	token, err := a.signToken(user)
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and returns a signed token
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		config.WriteError(w, models.NewValidationError("email", "password"), a.Config.Environment)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, models.ErrUnauthenticated)
		return
	}
	if !user.IsActive {
		config.ErrorStatus("account deactivated", http.StatusUnauthorized, w, models.ErrUnauthenticated)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, models.ErrUnauthenticated)
		return
	}

	token, err := a.signToken(*user)
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	_ = json.NewEncoder(w).Encode(authResponse{Token: token, User: *user})
}

// ProfileHandler returns the caller's own profile
func (a Auth) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Config.Environment)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.DB.FindOne(ctx, bson.M{"_id": identity.ID})
	if err != nil {
		config.WriteError(w, err, a.Config.Environment)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
}

// UpdateProfileHandler applies a partial update to the caller's own profile
func (a Auth) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFrom(r.Context())
	if !ok {
		config.WriteError(w, models.ErrUnauthenticated, a.Config.Environment)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	set := bson.M{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		if !phonePattern.MatchString(strings.TrimSpace(*req.Phone)) {
			config.WriteError(w, models.NewValidationError("phone"), a.Config.Environment)
			return
		}
		set["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		set["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !emailPattern.MatchString(email) {
			config.WriteError(w, models.NewValidationError("email"), a.Config.Environment)
			return
		}
		if other, err := a.DB.FindOne(ctx, bson.M{"email": email, "_id": bson.M{"$ne": identity.ID}}); err == nil && other != nil {
			config.WriteError(w, &models.ConflictError{Resource: "user", Field: "email"}, a.Config.Environment)
			return
		}
		set["email"] = email
	}

	if len(set) == 0 {
		config.WriteError(w, models.NewValidationError("body"), a.Config.Environment)
		return
	}

	if _, err := a.DB.UpdateOne(ctx, bson.M{"_id": identity.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update profile", http.StatusInternalServerError, w, err)
		return
	}

	user, err := a.DB.FindOne(ctx, bson.M{"_id": identity.ID})
	if err != nil {
		config.WriteError(w, err, a.Config.Environment)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
}

func (a Auth) signToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.Hex(),
		"role": string(user.Role),
		"typ":  "access",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.Config.JWTSecret))
}
