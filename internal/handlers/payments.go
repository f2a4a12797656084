package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/services"

	log "github.com/sirupsen/logrus"
)

const webhookSecretHeader = "X-Webhook-Secret"

type paymentWebhookRequest struct {
	UserID      string          `json:"userId"`
	Amount      json.RawMessage `json:"amount"`
	ExternalRef string          `json:"externalRef"`
	Status      string          `json:"status"`
}

// paidStatuses are the provider states that mean the money has arrived.
var paidStatuses = map[string]bool{
	"paid":      true,
	"approved":  true,
	"completed": true,
	"success":   true,
}

func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	secret := h.cfg.PaymentWebhookSecret
	if secret == "" {
		respondMessage(w, apperr.Forbidden, "webhook disabled")
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(webhookSecretHeader)), []byte(secret)) != 1 {
		respondMessage(w, apperr.Unauthorized, "invalid webhook secret")
		return
	}
	var req paymentWebhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !paidStatuses[status] {
		log.WithFields(log.Fields{
			"external_ref": req.ExternalRef,
			"status":       req.Status,
		}).Info("payment webhook ignored")
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}
	amount, err := money.ParseJSON(req.Amount)
	if err != nil {
		respondMessage(w, apperr.InvalidInput, "amount must be numeric")
		return
	}
	result, err := h.commissions.RecordDeposit(r.Context(), services.DepositRequest{
		UserID:      strings.TrimSpace(req.UserID),
		Amount:      amount,
		ExternalRef: strings.TrimSpace(req.ExternalRef),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactionId": result.TransactionID,
		"duplicate":     result.Duplicate,
		"commission":    toCommission(result.Commission),
	})
}
