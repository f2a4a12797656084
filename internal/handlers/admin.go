package handlers

import (
	"net/http"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/middleware"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		respondMessage(w, apperr.InvalidInput, "password is required")
		return
	}
	session, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"scopes":    session.Credential.Scopes,
		"expiresAt": session.Credential.ExpiresAt,
	})
}

func (h *Handler) AdminRevoke(w http.ResponseWriter, r *http.Request) {
	credential, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		respondMessage(w, apperr.Unauthorized, "unauthorized")
		return
	}
	if err := h.admin.Revoke(r.Context(), credential); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"revoked": credential.ID})
}

func (h *Handler) AdminAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	rows, err := h.admin.ListAudit(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
