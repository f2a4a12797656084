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

type prizeRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"imageUrl"`
	EstimatedValue json.RawMessage `json:"estimatedValue"`
	StockQuantity  int             `json:"stockQuantity"`
	MinStockAlert  int             `json:"minStockAlert"`
	IsActive       *bool           `json:"isActive"`
	RarityWeight   int             `json:"rarityWeight"`
}

func (req prizeRequest) input() (services.PrizeInput, error) {
	value := decimal.Zero
	if len(req.EstimatedValue) > 0 {
		parsed, err := money.ParseJSON(req.EstimatedValue)
		if err != nil {
			return services.PrizeInput{}, apperr.New(apperr.InvalidInput, "estimatedValue must be numeric")
		}
		value = parsed
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	weight := req.RarityWeight
	if weight == 0 {
		weight = 1
	}
	return services.PrizeInput{
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		EstimatedValue: value,
		StockQuantity:  req.StockQuantity,
		MinStockAlert:  req.MinStockAlert,
		IsActive:       active,
		RarityWeight:   weight,
	}, nil
}

func (h *Handler) AdminListPrizes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventory.ListPrizes(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPrizes(rows))
}

func (h *Handler) AdminGetPrize(w http.ResponseWriter, r *http.Request) {
	prize, err := h.inventory.GetPrize(r.Context(), urlParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPrize(prize))
}

func (h *Handler) AdminCreatePrize(w http.ResponseWriter, r *http.Request) {
	var req prizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		respondError(w, r, err)
		return
	}
	prize, err := h.inventory.CreatePrize(r.Context(), input, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPrize(prize))
}

func (h *Handler) AdminUpdatePrize(w http.ResponseWriter, r *http.Request) {
	var req prizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		respondError(w, r, err)
		return
	}
	prize, err := h.inventory.UpdatePrize(r.Context(), urlParam(r, "id"), input, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPrize(prize))
}

type stockRequest struct {
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	AdminUser string `json:"admin_user"`
}

func (h *Handler) AdminAddStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	adminUser := strings.TrimSpace(req.AdminUser)
	if adminUser == "" {
		adminUser = adminActor(r)
	}
	result, err := h.inventory.AddStock(r.Context(), services.StockRequest{
		PrizeID:   urlParam(r, "id"),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		AdminUser: adminUser,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"prizeId":       result.PrizeID,
		"previousStock": result.PreviousStock,
		"newStock":      result.NewStock,
	})
}

type winRequest struct {
	UserID          string `json:"userId"`
	GameName        string `json:"gameName"`
	DeliveryName    string `json:"deliveryName"`
	DeliveryPhone   string `json:"deliveryPhone"`
	DeliveryAddress string `json:"deliveryAddress"`
	DeliveryCity    string `json:"deliveryCity"`
	DeliveryState   string `json:"deliveryState"`
	DeliveryZip     string `json:"deliveryZip"`
	Notes           string `json:"notes"`
}

func (req winRequest) service(prizeID string) services.WinRequest {
	return services.WinRequest{
		PrizeID:         prizeID,
		UserID:          strings.TrimSpace(req.UserID),
		GameName:        strings.TrimSpace(req.GameName),
		DeliveryName:    req.DeliveryName,
		DeliveryPhone:   req.DeliveryPhone,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryCity:    req.DeliveryCity,
		DeliveryState:   req.DeliveryState,
		DeliveryZip:     req.DeliveryZip,
		Notes:           req.Notes,
	}
}

func (h *Handler) AdminAwardPrize(w http.ResponseWriter, r *http.Request) {
	var req winRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	winner, err := h.inventory.DecrementOnWin(r.Context(), req.service(urlParam(r, "id")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, winner)
}

func (h *Handler) AdminDrawPrize(w http.ResponseWriter, r *http.Request) {
	var req winRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	winner, err := h.inventory.DrawAndAward(r.Context(), req.service(""))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, winner)
}

func (h *Handler) AdminDeletePrize(w http.ResponseWriter, r *http.Request) {
	prizeID := urlParam(r, "id")
	if err := h.inventory.DeletePrize(r.Context(), prizeID, adminActor(r)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": prizeID})
}

func (h *Handler) AdminPrizeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inventory.Statistics(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInventoryStats(stats))
}

func (h *Handler) AdminStockLogs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.inventory.ListStockLogs(r.Context(), urlParam(r, "id"), parseInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) AdminListWinners(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)
	rows, err := h.inventory.ListWinners(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

type winnerStatusRequest struct {
	Status       string `json:"status"`
	TrackingCode string `json:"trackingCode"`
}

func (h *Handler) AdminUpdateWinnerStatus(w http.ResponseWriter, r *http.Request) {
	var req winnerStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	winner, err := h.inventory.UpdateWinnerStatus(r.Context(), urlParam(r, "id"), strings.TrimSpace(req.Status), req.TrackingCode, adminActor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, winner)
}
