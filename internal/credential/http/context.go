// Package http provides HTTP handlers and the API-key authentication stage
// for principals.
package http

import (
	"context"

	"github.com/google/uuid"
)

// principalIDKey is a context key type for storing the authenticated principal.
type principalIDKey struct{}

// WithPrincipalID stores the authenticated principal ID in the context.
// This is called by APIKeyAuthenticationMiddleware after a successful key check.
func WithPrincipalID(ctx context.Context, principalID uuid.UUID) context.Context {
	return context.WithValue(ctx, principalIDKey{}, principalID)
}

// GetPrincipalID retrieves the authenticated principal ID from the context.
// Returns (id, true) if present, or (uuid.Nil, false) if no principal was set.
func GetPrincipalID(ctx context.Context) (uuid.UUID, bool) {
	principalID, ok := ctx.Value(principalIDKey{}).(uuid.UUID)
	return principalID, ok
}
