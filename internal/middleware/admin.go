package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/auth"

	log "github.com/sirupsen/logrus"
)

const AdminTokenHeader = "X-Admin-Token"

type AdminVerifier interface {
	Verify(ctx context.Context, token string) (auth.Credential, error)
}

func CredentialFromContext(ctx context.Context) (auth.Credential, bool) {
	credential, ok := ctx.Value(credentialKey).(auth.Credential)
	return credential, ok
}

func ContextWithCredential(ctx context.Context, credential auth.Credential) context.Context {
	return context.WithValue(ctx, credentialKey, credential)
}

// RequireAdmin verifies X-Admin-Token and checks scope. An empty scope admits
// any valid credential.
func RequireAdmin(verifier AdminVerifier, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AdminTokenHeader)
			if token == "" {
				writeError(w, apperr.Unauthorized, "admin token required")
				return
			}
			credential, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
					writeError(w, apperr.Unauthorized, "invalid admin token")
					return
				}
				log.WithError(err).Error("admin token verification failed")
				writeError(w, apperr.Internal, "unable to verify admin token")
				return
			}
			if !credential.HasScope(scope) {
				writeError(w, apperr.Forbidden, "missing required scope")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithCredential(r.Context(), credential)))
		})
	}
}
