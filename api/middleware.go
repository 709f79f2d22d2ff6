package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/databases"
	"github.com/civiclens/civic-complaints-api/models"
)

// MiddlewareDB holds the user database and signing secret used to resolve
// bearer tokens into identities.
type MiddlewareDB struct {
	DB     databases.UserDatabase
	Secret string
}

// Middleware verifies the bearer token, loads the user behind it and stores
// the resulting identity in the request context. Role and department always
// come from the users collection, not from token claims, so role changes and
// deactivations take effect on the next request.
func (m MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		identity, err := m.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Authenticate resolves the request's bearer token to an identity.
func (m MiddlewareDB) Authenticate(r *http.Request) (models.Identity, error) {
	token := bearerToken(r)
	if token == "" {
		return models.Identity{}, models.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.Secret), nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	ctx, cancel := WithQueryTimeout(r.Context())
	defer cancel()

	user, err := m.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return models.Identity{}, fmt.Errorf("unknown user: %w", err)
	}
	if !user.IsActive {
		return models.Identity{}, fmt.Errorf("user deactivated: %w", models.ErrUnauthenticated)
	}

	return models.Identity{ID: user.ID, Role: user.Role, Department: user.Department}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// websocket clients cannot set headers from the browser
	return r.URL.Query().Get("token")
}
