package api

import (
	"context"
	"time"

	"github.com/civiclens/civic-complaints-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type contextKey string

const identityKey contextKey = "identity"

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithIdentity stashes the authenticated caller in the request context.
func WithIdentity(parent context.Context, identity models.Identity) context.Context {
	return context.WithValue(parent, identityKey, identity)
}

// IdentityFrom extracts the authenticated caller from the request context.
// The second return is false for unauthenticated requests.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
