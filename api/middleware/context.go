package middleware

import (
	"context"

	"github.com/lfbag/storefront/pkg/auth"
)

type contextKey string

const (
	ctxSessionID   contextKey = "session_id"
	ctxAdminClaims contextKey = "admin_claims"
)

// SessionIDFromContext returns the storefront session id set by Session.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the storefront session id into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

func AdminClaimsFromContext(ctx context.Context) *auth.AdminClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAdminClaims).(*auth.AdminClaims); ok {
		return v
	}
	return nil
}

func WithAdminClaims(ctx context.Context, claims *auth.AdminClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminClaims, claims)
}
