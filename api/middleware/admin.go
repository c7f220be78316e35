package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/lfbag/storefront/api/responses"
	"github.com/lfbag/storefront/pkg/auth"
	"github.com/lfbag/storefront/pkg/backend"
	"github.com/lfbag/storefront/pkg/config"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

// AdminAuth gates admin routes on the staff flag and expiry of the bearer
// token, then forwards the token on outgoing backend calls.
func AdminAuth(cfg config.AdminAuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := auth.InspectAdminToken(cfg, token, time.Now())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, adminAuthError(err))
				return
			}

			ctx := backend.WithBearer(r.Context(), token)
			ctx = WithAdminClaims(ctx, claims)
			if logg != nil {
				ctx = logg.WithField(ctx, "admin", claims.Actor())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrNotStaff):
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "staff access required")
	case errors.Is(err, auth.ErrTokenExpired):
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
}
