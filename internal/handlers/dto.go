package handlers

import (
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/services"

	"github.com/shopspring/decimal"
)

type vaultStatusResponse struct {
	GameName           string   `json:"gameName"`
	Balance            string   `json:"balance"`
	AvailableForPrizes string   `json:"availableForPrizes"`
	PrizeChance        string   `json:"prizeChance"`
	NextPrizeValues    []string `json:"nextPrizeValues"`
	GameCount          int64    `json:"gameCount"`
}

func toVaultStatus(status services.VaultStatus) vaultStatusResponse {
	return vaultStatusResponse{
		GameName:           status.GameName,
		Balance:            money.Format(status.Balance),
		AvailableForPrizes: money.Format(status.AvailableForPrizes),
		PrizeChance:        status.PrizeChance.String(),
		NextPrizeValues:    formatAll(status.NextPrizeValues),
		GameCount:          status.GameCount,
	}
}

type adjustResponse struct {
	GameName        string `json:"gameName"`
	PreviousBalance string `json:"previousBalance"`
	NewBalance      string `json:"newBalance"`
	Adjustment      string `json:"adjustment"`
}

type movementResponse struct {
	GameName        string              `json:"gameName"`
	HistoryID       string              `json:"historyId"`
	PreviousBalance string              `json:"previousBalance"`
	NewBalance      string              `json:"newBalance"`
	Commission      *commissionResponse `json:"commission,omitempty"`
}

type commissionResponse struct {
	AffiliateID   string `json:"affiliateId"`
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
}

func toCommission(result services.CommissionResult) *commissionResponse {
	if !result.Credited {
		return nil
	}
	return &commissionResponse{
		AffiliateID:   result.AffiliateID,
		TransactionID: result.TransactionID,
		Amount:        money.Format(result.Amount),
	}
}

func toMovement(movement services.VaultMovement) movementResponse {
	return movementResponse{
		GameName:        movement.GameName,
		HistoryID:       movement.HistoryID,
		PreviousBalance: money.Format(movement.PreviousBalance),
		NewBalance:      money.Format(movement.NewBalance),
		Commission:      toCommission(movement.Commission),
	}
}

type historyResponse struct {
	ID            string    `json:"id"`
	GameName      string    `json:"gameName"`
	UserID        *string   `json:"userId,omitempty"`
	EventType     string    `json:"eventType"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balanceBefore"`
	BalanceAfter  string    `json:"balanceAfter"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toHistory(rows []models.CofreHistory) []historyResponse {
	out := make([]historyResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyResponse{
			ID:            row.ID,
			GameName:      row.GameName,
			UserID:        row.UserID,
			EventType:     row.EventType,
			Amount:        money.Format(row.Amount),
			BalanceBefore: money.Format(row.BalanceBefore),
			BalanceAfter:  money.Format(row.BalanceAfter),
			Reason:        row.Reason,
			Actor:         row.Actor,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}

type gameStatsResponse struct {
	GameName           string     `json:"gameName"`
	Balance            string     `json:"balance"`
	AvailableForPrizes string     `json:"availableForPrizes"`
	PrizeChance        string     `json:"prizeChance"`
	GameCount          int64      `json:"gameCount"`
	TotalReceived      string     `json:"totalReceived"`
	TotalPaid          string     `json:"totalPaid"`
	PrizeCount         int64      `json:"prizeCount"`
	AdjustmentCount    int64      `json:"adjustmentCount"`
	LastPrizeAt        *time.Time `json:"lastPrizeAt"`
}

type vaultStatsResponse struct {
	Games        []gameStatsResponse `json:"games"`
	RecentPrizes []historyResponse   `json:"recentPrizes"`
}

func toVaultStats(stats services.VaultStatistics) vaultStatsResponse {
	games := make([]gameStatsResponse, 0, len(stats.Games))
	for _, game := range stats.Games {
		games = append(games, gameStatsResponse{
			GameName:           game.GameName,
			Balance:            money.Format(game.Balance),
			AvailableForPrizes: money.Format(game.AvailableForPrizes),
			PrizeChance:        game.PrizeChance.String(),
			GameCount:          game.GameCount,
			TotalReceived:      money.Format(game.TotalReceived),
			TotalPaid:          money.Format(game.TotalPaid),
			PrizeCount:         game.PrizeCount,
			AdjustmentCount:    game.AdjustmentCount,
			LastPrizeAt:        game.LastPrize(),
		})
	}
	return vaultStatsResponse{Games: games, RecentPrizes: toHistory(stats.RecentPrizes)}
}

type affiliateResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Code               string    `json:"code"`
	ManagerID          *string   `json:"managerId"`
	CommissionRate     string    `json:"commissionRate"`
	LossCommissionRate string    `json:"lossCommissionRate"`
	Balance            string    `json:"balance"`
	TotalEarnings      string    `json:"totalEarnings"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toAffiliate(affiliate models.Affiliate) affiliateResponse {
	return affiliateResponse{
		ID:                 affiliate.ID,
		UserID:             affiliate.UserID,
		Code:               affiliate.Code,
		ManagerID:          affiliate.ManagerID,
		CommissionRate:     affiliate.CommissionRate.String(),
		LossCommissionRate: affiliate.LossCommissionRate.String(),
		Balance:            money.Format(affiliate.Balance),
		TotalEarnings:      money.Format(affiliate.TotalEarnings),
		Status:             affiliate.Status,
		CreatedAt:          affiliate.CreatedAt,
	}
}

func toAffiliates(rows []models.Affiliate) []affiliateResponse {
	out := make([]affiliateResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAffiliate(row))
	}
	return out
}

type managerResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CommissionRate *string   `json:"commissionRate"`
	Balance        string    `json:"balance"`
	TotalEarnings  string    `json:"totalEarnings"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toManagers(rows []models.Manager) []managerResponse {
	out := make([]managerResponse, 0, len(rows))
	for _, row := range rows {
		var rate *string
		if row.CommissionRate.Valid {
			value := row.CommissionRate.Decimal.String()
			rate = &value
		}
		out = append(out, managerResponse{
			ID:             row.ID,
			UserID:         row.UserID,
			Name:           row.Name,
			Email:          row.Email,
			CommissionRate: rate,
			Balance:        money.Format(row.Balance),
			TotalEarnings:  money.Format(row.TotalEarnings),
			Status:         row.Status,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Metadata    string    `json:"metadata,omitempty"`
	ExternalRef *string   `json:"externalRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactions(rows []models.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, transactionResponse{
			ID:          row.ID,
			Type:        row.Type,
			Amount:      money.Format(row.Amount),
			Status:      row.Status,
			Metadata:    row.Metadata,
			ExternalRef: row.ExternalRef,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out
}

type withdrawResponse struct {
	TransactionID string `json:"transactionId"`
	AffiliateID   string `json:"affiliateId"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
}

func toWithdraw(result services.WithdrawResult) withdrawResponse {
	return withdrawResponse{
		TransactionID: result.TransactionID,
		AffiliateID:   result.AffiliateID,
		Amount:        money.Format(result.Amount),
		Status:        result.Status,
	}
}

type prizeResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	EstimatedValue string    `json:"estimatedValue"`
	StockQuantity  int       `json:"stockQuantity"`
	MinStockAlert  int       `json:"minStockAlert"`
	IsActive       bool      `json:"isActive"`
	RarityWeight   int       `json:"rarityWeight"`
	LowStock       bool      `json:"lowStock"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toPrize(prize models.PhysicalPrize) prizeResponse {
	return prizeResponse{
		ID:             prize.ID,
		Name:           prize.Name,
		Description:    prize.Description,
		ImageURL:       prize.ImageURL,
		EstimatedValue: money.Format(prize.EstimatedValue),
		StockQuantity:  prize.StockQuantity,
		MinStockAlert:  prize.MinStockAlert,
		IsActive:       prize.IsActive,
		RarityWeight:   prize.RarityWeight,
		LowStock:       prize.LowStock(),
		CreatedAt:      prize.CreatedAt,
		UpdatedAt:      prize.UpdatedAt,
	}
}

func toPrizes(rows []models.PhysicalPrize) []prizeResponse {
	out := make([]prizeResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPrize(row))
	}
	return out
}

type inventoryStatsResponse struct {
	TotalPrizes      int             `json:"totalPrizes"`
	ActivePrizes     int             `json:"activePrizes"`
	TotalStock       int             `json:"totalStock"`
	PendingWinners   int             `json:"pendingWinners"`
	ContactedWinners int             `json:"contactedWinners"`
	ShippedWinners   int             `json:"shippedWinners"`
	DeliveredWinners int             `json:"deliveredWinners"`
	LowStock         []prizeResponse `json:"lowStock"`
}

func toInventoryStats(stats services.InventoryStatistics) inventoryStatsResponse {
	return inventoryStatsResponse{
		TotalPrizes:      stats.TotalPrizes,
		ActivePrizes:     stats.ActivePrizes,
		TotalStock:       stats.TotalStock,
		PendingWinners:   stats.PendingWinners,
		ContactedWinners: stats.ContactedWinners,
		ShippedWinners:   stats.ShippedWinners,
		DeliveredWinners: stats.DeliveredWinners,
		LowStock:         toPrizes(stats.LowStock),
	}
}

func formatAll(values []decimal.Decimal) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, money.Format(value))
	}
	return out
}
