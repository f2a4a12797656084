package handlers

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/services"

	"github.com/shopspring/decimal"
)

type VaultService interface {
	GetStatus(ctx context.Context, gameName string) (services.VaultStatus, error)
	Adjust(ctx context.Context, req services.AdjustRequest) (services.AdjustResult, error)
	RecordPrizeEvent(ctx context.Context, req services.PrizeEventRequest) (services.VaultMovement, error)
	RecordContribution(ctx context.Context, req services.ContributionRequest) (services.VaultMovement, error)
	UpdateSettings(ctx context.Context, gameName string, prizeChance decimal.Decimal, actor string) (services.VaultStatus, error)
	CreateGame(ctx context.Context, gameName string, prizeChance decimal.Decimal, actor string) (services.VaultStatus, error)
	GetStatistics(ctx context.Context, gameName string) (services.VaultStatistics, error)
	GetHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error)
}

type CommissionService interface {
	RecordDeposit(ctx context.Context, req services.DepositRequest) (services.DepositResult, error)
	ProcessWithdraw(ctx context.Context, affiliateID string, amount decimal.Decimal) (services.WithdrawResult, error)
	CompleteWithdraw(ctx context.Context, transactionID string, success bool, actor string) (services.WithdrawResult, error)
	CreditAffiliate(ctx context.Context, req services.CreditRequest) (services.CommissionResult, error)
	ReconcileManagerBalances(ctx context.Context) (services.ReconcileResult, error)
	AssignAffiliateToManager(ctx context.Context, affiliateID, managerID, actor string) error
	UnassignAffiliate(ctx context.Context, affiliateID, actor string) error
	ListManagers(ctx context.Context) ([]models.Manager, error)
	ListManagerAffiliates(ctx context.Context, managerID string) ([]models.Affiliate, error)
	GetAffiliate(ctx context.Context, affiliateID string) (models.Affiliate, error)
	ListAffiliateTransactions(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error)
}

type InventoryService interface {
	CreatePrize(ctx context.Context, input services.PrizeInput, actor string) (models.PhysicalPrize, error)
	UpdatePrize(ctx context.Context, prizeID string, input services.PrizeInput, actor string) (models.PhysicalPrize, error)
	GetPrize(ctx context.Context, prizeID string) (models.PhysicalPrize, error)
	ListPrizes(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error)
	AddStock(ctx context.Context, req services.StockRequest) (services.StockResult, error)
	DecrementOnWin(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error)
	DrawAndAward(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error)
	DeletePrize(ctx context.Context, prizeID, actor string) error
	Statistics(ctx context.Context) (services.InventoryStatistics, error)
	ListWinners(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error)
	UpdateWinnerStatus(ctx context.Context, winnerID, status, trackingCode, actor string) (models.PhysicalPrizeWinner, error)
	ListStockLogs(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error)
}

type FeedService interface {
	GetWinnersFeed(ctx context.Context, limit int) (services.FeedSnapshot, error)
}

type AdminService interface {
	Login(ctx context.Context, password string) (services.AdminSession, error)
	Revoke(ctx context.Context, credential auth.Credential) error
	ListAudit(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}
