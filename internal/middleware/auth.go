package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/auth"
)

type contextKey string

const (
	identityKey   contextKey = "identity"
	credentialKey contextKey = "admin_credential"
)

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

func ContextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Auth accepts the session cookie first and falls back to a bearer header.
func Auth(secret, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r, cookieName)
			if !ok {
				writeError(w, apperr.Unauthorized, "missing credentials")
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				writeError(w, apperr.Unauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims.Identity)))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireUserType must run after Auth.
func RequireUserType(userType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, apperr.Unauthorized, "unauthorized")
				return
			}
			if identity.UserType != userType {
				writeError(w, apperr.Forbidden, userType+" access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
