package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, kind apperr.Kind, message string) {
	respondJSON(w, apperr.Status(kind), map[string]string{
		"error": message,
		"kind":  string(kind),
	})
}

// respondError renders service errors. Anything that is not an *apperr.Error
// is logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.WithError(err).WithFields(log.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).Error("request failed")
	}
	respondMessage(w, kind, apperr.MessageOf(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondMessage(w, apperr.InvalidInput, "invalid payload")
		return false
	}
	return true
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func pagination(r *http.Request, defaultLimit int) (int, int) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	page := parseInt(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// adminActor names the credential behind an admin request for audit rows.
func adminActor(r *http.Request) string {
	credential, ok := middleware.CredentialFromContext(r.Context())
	if !ok || credential.Subject == "" {
		return "admin"
	}
	return credential.Subject
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
