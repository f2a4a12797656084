package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/services"

	"github.com/shopspring/decimal"
)

func (h *Handler) CofreStatus(w http.ResponseWriter, r *http.Request) {
	game := strings.TrimSpace(r.URL.Query().Get("game"))
	status, err := h.vault.GetStatus(r.Context(), game)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toVaultStatus(status))
}

type adjustRequest struct {
	GameName   string          `json:"gameName"`
	Adjustment json.RawMessage `json:"adjustment"`
	Reason     string          `json:"reason"`
}

func (h *Handler) AdminAdjustCofre(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	delta, err := money.ParseJSON(req.Adjustment)
	if err != nil {
		respondMessage(w, apperr.InvalidInput, "adjustment must be numeric")
		return
	}
	result, err := h.vault.Adjust(r.Context(), services.AdjustRequest{
		GameName: strings.TrimSpace(req.GameName),
		Delta:    delta,
		Reason:   req.Reason,
		Actor:    adminActor(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, adjustResponse{
		GameName:        result.GameName,
		PreviousBalance: money.Format(result.PreviousBalance),
		NewBalance:      money.Format(result.NewBalance),
		Adjustment:      money.Format(result.Adjustment),
	})
}

func (h *Handler) AdminCofreStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vault.GetStatistics(r.Context(), strings.TrimSpace(r.URL.Query().Get("game")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toVaultStats(stats))
}

func (h *Handler) AdminCofreHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rows, err := h.vault.GetHistory(r.Context(), strings.TrimSpace(query.Get("game")), query.Get("type"), parseInt(query.Get("limit"), 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toHistory(rows))
}

type gameRequest struct {
	GameName    string          `json:"gameName"`
	PrizeChance json.RawMessage `json:"prizeChance"`
}

func parseChance(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, nil
	}
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	chance, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, services.ErrInvalidPrizeChance
	}
	return chance, nil
}

func (h *Handler) AdminCreateGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	chance, err := parseChance(req.PrizeChance)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, err := h.vault.CreateGame(r.Context(), strings.TrimSpace(req.GameName), chance, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toVaultStatus(status))
}

func (h *Handler) AdminUpdateCofreSettings(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.PrizeChance) == 0 {
		respondMessage(w, apperr.InvalidInput, "prizeChance is required")
		return
	}
	chance, err := parseChance(req.PrizeChance)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, err := h.vault.UpdateSettings(r.Context(), urlParam(r, "game"), chance, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toVaultStatus(status))
}

type gameplayRequest struct {
	GameName string          `json:"gameName"`
	UserID   string          `json:"userId"`
	Amount   json.RawMessage `json:"amount"`
}

func (h *Handler) decodeGameplay(w http.ResponseWriter, r *http.Request) (gameplayRequest, decimal.Decimal, bool) {
	var req gameplayRequest
	if !decodeJSON(w, r, &req) {
		return req, decimal.Zero, false
	}
	amount, err := money.ParseJSON(req.Amount)
	if err != nil {
		respondMessage(w, apperr.InvalidInput, "amount must be numeric")
		return req, decimal.Zero, false
	}
	return req, amount, true
}

func (h *Handler) AdminRecordPrize(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decodeGameplay(w, r)
	if !ok {
		return
	}
	movement, err := h.vault.RecordPrizeEvent(r.Context(), services.PrizeEventRequest{
		GameName: strings.TrimSpace(req.GameName),
		UserID:   req.UserID,
		Amount:   amount,
		Actor:    adminActor(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMovement(movement))
}

func (h *Handler) AdminRecordContribution(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decodeGameplay(w, r)
	if !ok {
		return
	}
	movement, err := h.vault.RecordContribution(r.Context(), services.ContributionRequest{
		GameName: strings.TrimSpace(req.GameName),
		UserID:   req.UserID,
		Amount:   amount,
		Actor:    adminActor(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toMovement(movement))
}
