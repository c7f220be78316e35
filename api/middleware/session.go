package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/lfbag/storefront/api/responses"
	"github.com/lfbag/storefront/pkg/config"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
)

const sessionIDKey = "sid"

// NewSessionStore builds the signed cookie store for storefront sessions.
func NewSessionStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session loads or issues the anonymous storefront session id. Carts and
// checkout state are keyed by it.
func Session(store sessions.Store, cookieName string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, cookieName)
			if err != nil && logg != nil {
				// a tampered or rotated cookie yields a fresh session
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "session.cookie_invalid")
			}

			sid, _ := sess.Values[sessionIDKey].(string)
			if sid == "" {
				sid = uuid.NewString()
				sess.Values[sessionIDKey] = sid
				if err := sess.Save(r, w); err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save session"))
					return
				}
			}

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
