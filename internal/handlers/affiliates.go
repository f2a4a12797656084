package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/middleware"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/services"
)

func currentAffiliateID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, apperr.Unauthorized, "unauthorized")
		return "", false
	}
	if identity.AffiliateID == "" {
		respondMessage(w, apperr.Forbidden, "token carries no affiliate")
		return "", false
	}
	return identity.AffiliateID, true
}

type withdrawRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func (h *Handler) AffiliateWithdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := currentAffiliateID(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := money.ParseJSON(req.Amount)
	if err != nil {
		respondMessage(w, apperr.InvalidInput, "amount must be numeric")
		return
	}
	result, err := h.commissions.ProcessWithdraw(r.Context(), id, amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toWithdraw(result))
}

func (h *Handler) AffiliateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := currentAffiliateID(w, r)
	if !ok {
		return
	}
	affiliate, err := h.commissions.GetAffiliate(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAffiliate(affiliate))
}

func (h *Handler) AffiliateTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := currentAffiliateID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r, 50)
	rows, err := h.commissions.ListAffiliateTransactions(r.Context(), id, r.URL.Query().Get("type"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactions(rows))
}

func (h *Handler) AdminSyncManagerBalances(w http.ResponseWriter, r *http.Request) {
	result, err := h.commissions.ReconcileManagerBalances(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) AdminListManagers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.commissions.ListManagers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toManagers(rows))
}

func (h *Handler) AdminManagerAffiliates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.commissions.ListManagerAffiliates(r.Context(), urlParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAffiliates(rows))
}

type assignRequest struct {
	ManagerID string `json:"managerId"`
}

func (h *Handler) AdminAssignAffiliate(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	managerID := strings.TrimSpace(req.ManagerID)
	if managerID == "" {
		respondMessage(w, apperr.InvalidInput, "managerId is required")
		return
	}
	id := urlParam(r, "id")
	if err := h.commissions.AssignAffiliateToManager(r.Context(), id, managerID, adminActor(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"affiliateId": id, "managerId": managerID})
}

func (h *Handler) AdminUnassignAffiliate(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.commissions.UnassignAffiliate(r.Context(), id, adminActor(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"affiliateId": id, "managerId": nil})
}

type creditRequest struct {
	Amount json.RawMessage `json:"amount"`
	Reason string          `json:"reason"`
}

func (h *Handler) AdminCreditAffiliate(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := money.ParseJSON(req.Amount)
	if err != nil {
		respondMessage(w, apperr.InvalidInput, "amount must be numeric")
		return
	}
	result, err := h.commissions.CreditAffiliate(r.Context(), services.CreditRequest{
		AffiliateID: urlParam(r, "id"),
		Amount:      amount,
		Reason:      req.Reason,
		Source:      "manual",
		Actor:       adminActor(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCommission(result))
}

type completeWithdrawRequest struct {
	Success *bool `json:"success"`
}

func (h *Handler) AdminCompleteWithdraw(w http.ResponseWriter, r *http.Request) {
	var req completeWithdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Success == nil {
		respondMessage(w, apperr.InvalidInput, "success is required")
		return
	}
	result, err := h.commissions.CompleteWithdraw(r.Context(), urlParam(r, "id"), *req.Success, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toWithdraw(result))
}
