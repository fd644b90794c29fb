package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the authenticated caller's identity, or
// uuid.Nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxIdentity).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, identity uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
