package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/config"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/services"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/shopspring/decimal"
)

const (
	testSecret       = "secret"
	fullToken        = "full-token"
	gameplayToken    = "gameplay-token"
	managersToken    = "managers-token"
	testWebhookToken = "hook-secret"
)

type stubVault struct {
	statusFn       func(ctx context.Context, gameName string) (services.VaultStatus, error)
	adjustFn       func(ctx context.Context, req services.AdjustRequest) (services.AdjustResult, error)
	prizeFn        func(ctx context.Context, req services.PrizeEventRequest) (services.VaultMovement, error)
	contributionFn func(ctx context.Context, req services.ContributionRequest) (services.VaultMovement, error)
	settingsFn     func(ctx context.Context, gameName string, chance decimal.Decimal, actor string) (services.VaultStatus, error)
	createGameFn   func(ctx context.Context, gameName string, chance decimal.Decimal, actor string) (services.VaultStatus, error)
	statsFn        func(ctx context.Context, gameName string) (services.VaultStatistics, error)
	historyFn      func(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error)
}

func (s stubVault) GetStatus(ctx context.Context, gameName string) (services.VaultStatus, error) {
	if s.statusFn == nil {
		return services.VaultStatus{GameName: gameName}, nil
	}
	return s.statusFn(ctx, gameName)
}

func (s stubVault) Adjust(ctx context.Context, req services.AdjustRequest) (services.AdjustResult, error) {
	if s.adjustFn == nil {
		return services.AdjustResult{}, nil
	}
	return s.adjustFn(ctx, req)
}

func (s stubVault) RecordPrizeEvent(ctx context.Context, req services.PrizeEventRequest) (services.VaultMovement, error) {
	if s.prizeFn == nil {
		return services.VaultMovement{}, nil
	}
	return s.prizeFn(ctx, req)
}

func (s stubVault) RecordContribution(ctx context.Context, req services.ContributionRequest) (services.VaultMovement, error) {
	if s.contributionFn == nil {
		return services.VaultMovement{}, nil
	}
	return s.contributionFn(ctx, req)
}

func (s stubVault) UpdateSettings(ctx context.Context, gameName string, chance decimal.Decimal, actor string) (services.VaultStatus, error) {
	if s.settingsFn == nil {
		return services.VaultStatus{GameName: gameName, PrizeChance: chance}, nil
	}
	return s.settingsFn(ctx, gameName, chance, actor)
}

func (s stubVault) CreateGame(ctx context.Context, gameName string, chance decimal.Decimal, actor string) (services.VaultStatus, error) {
	if s.createGameFn == nil {
		return services.VaultStatus{GameName: gameName, PrizeChance: chance}, nil
	}
	return s.createGameFn(ctx, gameName, chance, actor)
}

func (s stubVault) GetStatistics(ctx context.Context, gameName string) (services.VaultStatistics, error) {
	if s.statsFn == nil {
		return services.VaultStatistics{}, nil
	}
	return s.statsFn(ctx, gameName)
}

func (s stubVault) GetHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, gameName, eventType, limit)
}

type stubCommissions struct {
	depositFn      func(ctx context.Context, req services.DepositRequest) (services.DepositResult, error)
	withdrawFn     func(ctx context.Context, affiliateID string, amount decimal.Decimal) (services.WithdrawResult, error)
	completeFn     func(ctx context.Context, transactionID string, success bool, actor string) (services.WithdrawResult, error)
	creditFn       func(ctx context.Context, req services.CreditRequest) (services.CommissionResult, error)
	reconcileFn    func(ctx context.Context) (services.ReconcileResult, error)
	assignFn       func(ctx context.Context, affiliateID, managerID, actor string) error
	unassignFn     func(ctx context.Context, affiliateID, actor string) error
	managersFn     func(ctx context.Context) ([]models.Manager, error)
	teamFn         func(ctx context.Context, managerID string) ([]models.Affiliate, error)
	affiliateFn    func(ctx context.Context, affiliateID string) (models.Affiliate, error)
	transactionsFn func(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error)
}

func (s stubCommissions) RecordDeposit(ctx context.Context, req services.DepositRequest) (services.DepositResult, error) {
	if s.depositFn == nil {
		return services.DepositResult{}, nil
	}
	return s.depositFn(ctx, req)
}

func (s stubCommissions) ProcessWithdraw(ctx context.Context, affiliateID string, amount decimal.Decimal) (services.WithdrawResult, error) {
	if s.withdrawFn == nil {
		return services.WithdrawResult{}, nil
	}
	return s.withdrawFn(ctx, affiliateID, amount)
}

func (s stubCommissions) CompleteWithdraw(ctx context.Context, transactionID string, success bool, actor string) (services.WithdrawResult, error) {
	if s.completeFn == nil {
		return services.WithdrawResult{}, nil
	}
	return s.completeFn(ctx, transactionID, success, actor)
}

func (s stubCommissions) CreditAffiliate(ctx context.Context, req services.CreditRequest) (services.CommissionResult, error) {
	if s.creditFn == nil {
		return services.CommissionResult{}, nil
	}
	return s.creditFn(ctx, req)
}

func (s stubCommissions) ReconcileManagerBalances(ctx context.Context) (services.ReconcileResult, error) {
	if s.reconcileFn == nil {
		return services.ReconcileResult{}, nil
	}
	return s.reconcileFn(ctx)
}

func (s stubCommissions) AssignAffiliateToManager(ctx context.Context, affiliateID, managerID, actor string) error {
	if s.assignFn == nil {
		return nil
	}
	return s.assignFn(ctx, affiliateID, managerID, actor)
}

func (s stubCommissions) UnassignAffiliate(ctx context.Context, affiliateID, actor string) error {
	if s.unassignFn == nil {
		return nil
	}
	return s.unassignFn(ctx, affiliateID, actor)
}

func (s stubCommissions) ListManagers(ctx context.Context) ([]models.Manager, error) {
	if s.managersFn == nil {
		return nil, nil
	}
	return s.managersFn(ctx)
}

func (s stubCommissions) ListManagerAffiliates(ctx context.Context, managerID string) ([]models.Affiliate, error) {
	if s.teamFn == nil {
		return nil, nil
	}
	return s.teamFn(ctx, managerID)
}

func (s stubCommissions) GetAffiliate(ctx context.Context, affiliateID string) (models.Affiliate, error) {
	if s.affiliateFn == nil {
		return models.Affiliate{ID: affiliateID}, nil
	}
	return s.affiliateFn(ctx, affiliateID)
}

func (s stubCommissions) ListAffiliateTransactions(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.transactionsFn == nil {
		return nil, nil
	}
	return s.transactionsFn(ctx, affiliateID, txType, limit, offset)
}

type stubInventory struct {
	createFn       func(ctx context.Context, input services.PrizeInput, actor string) (models.PhysicalPrize, error)
	updateFn       func(ctx context.Context, prizeID string, input services.PrizeInput, actor string) (models.PhysicalPrize, error)
	getFn          func(ctx context.Context, prizeID string) (models.PhysicalPrize, error)
	listFn         func(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error)
	addStockFn     func(ctx context.Context, req services.StockRequest) (services.StockResult, error)
	winFn          func(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error)
	drawFn         func(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error)
	deleteFn       func(ctx context.Context, prizeID, actor string) error
	statsFn        func(ctx context.Context) (services.InventoryStatistics, error)
	winnersFn      func(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error)
	winnerStatusFn func(ctx context.Context, winnerID, status, trackingCode, actor string) (models.PhysicalPrizeWinner, error)
	stockLogsFn    func(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error)
}

func (s stubInventory) CreatePrize(ctx context.Context, input services.PrizeInput, actor string) (models.PhysicalPrize, error) {
	if s.createFn == nil {
		return models.PhysicalPrize{Name: input.Name}, nil
	}
	return s.createFn(ctx, input, actor)
}

func (s stubInventory) UpdatePrize(ctx context.Context, prizeID string, input services.PrizeInput, actor string) (models.PhysicalPrize, error) {
	if s.updateFn == nil {
		return models.PhysicalPrize{ID: prizeID, Name: input.Name}, nil
	}
	return s.updateFn(ctx, prizeID, input, actor)
}

func (s stubInventory) GetPrize(ctx context.Context, prizeID string) (models.PhysicalPrize, error) {
	if s.getFn == nil {
		return models.PhysicalPrize{ID: prizeID}, nil
	}
	return s.getFn(ctx, prizeID)
}

func (s stubInventory) ListPrizes(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, activeOnly)
}

func (s stubInventory) AddStock(ctx context.Context, req services.StockRequest) (services.StockResult, error) {
	if s.addStockFn == nil {
		return services.StockResult{PrizeID: req.PrizeID}, nil
	}
	return s.addStockFn(ctx, req)
}

func (s stubInventory) DecrementOnWin(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error) {
	if s.winFn == nil {
		return models.PhysicalPrizeWinner{}, nil
	}
	return s.winFn(ctx, req)
}

func (s stubInventory) DrawAndAward(ctx context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error) {
	if s.drawFn == nil {
		return models.PhysicalPrizeWinner{}, nil
	}
	return s.drawFn(ctx, req)
}

func (s stubInventory) DeletePrize(ctx context.Context, prizeID, actor string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, prizeID, actor)
}

func (s stubInventory) Statistics(ctx context.Context) (services.InventoryStatistics, error) {
	if s.statsFn == nil {
		return services.InventoryStatistics{}, nil
	}
	return s.statsFn(ctx)
}

func (s stubInventory) ListWinners(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error) {
	if s.winnersFn == nil {
		return nil, nil
	}
	return s.winnersFn(ctx, status, limit, offset)
}

func (s stubInventory) UpdateWinnerStatus(ctx context.Context, winnerID, status, trackingCode, actor string) (models.PhysicalPrizeWinner, error) {
	if s.winnerStatusFn == nil {
		return models.PhysicalPrizeWinner{}, nil
	}
	return s.winnerStatusFn(ctx, winnerID, status, trackingCode, actor)
}

func (s stubInventory) ListStockLogs(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error) {
	if s.stockLogsFn == nil {
		return nil, nil
	}
	return s.stockLogsFn(ctx, prizeID, limit)
}

type stubFeed struct {
	feedFn func(ctx context.Context, limit int) (services.FeedSnapshot, error)
}

func (s stubFeed) GetWinnersFeed(ctx context.Context, limit int) (services.FeedSnapshot, error) {
	if s.feedFn == nil {
		return services.FeedSnapshot{}, nil
	}
	return s.feedFn(ctx, limit)
}

type stubAdmin struct {
	loginFn  func(ctx context.Context, password string) (services.AdminSession, error)
	revokeFn func(ctx context.Context, credential auth.Credential) error
	auditFn  func(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

func (s stubAdmin) Login(ctx context.Context, password string) (services.AdminSession, error) {
	if s.loginFn == nil {
		return services.AdminSession{}, nil
	}
	return s.loginFn(ctx, password)
}

func (s stubAdmin) Revoke(ctx context.Context, credential auth.Credential) error {
	if s.revokeFn == nil {
		return nil
	}
	return s.revokeFn(ctx, credential)
}

func (s stubAdmin) ListAudit(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	if s.auditFn == nil {
		return nil, nil
	}
	return s.auditFn(ctx, limit, offset)
}

type testDeps struct {
	vault       stubVault
	commissions stubCommissions
	inventory   stubInventory
	feed        stubFeed
	admin       stubAdmin
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		AppEnv:               "test",
		Port:                 "0",
		JWTSecret:            testSecret,
		TokenTTL:             time.Minute,
		AllowedOrigins:       "*",
		AuthCookieName:       "auth-token",
		PaymentWebhookSecret: testWebhookToken,
	}
	verifier := auth.NewAdminAuthenticator(testSecret, map[string][]string{
		fullToken:     {auth.ScopeFull},
		gameplayToken: {auth.ScopeGameplay},
		managersToken: {auth.ScopeManagers},
	}, nil)
	return New(cfg, deps.vault, deps.commissions, deps.inventory, deps.feed, deps.admin, verifier, websocket.NewHub())
}

// serve sends a request through the full router. token goes into X-Admin-Token when set.
func serve(t *testing.T, handler *Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}

func affiliateToken(t *testing.T, affiliateID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Identity{
		UserID:      "user-1",
		AffiliateID: affiliateID,
		Email:       "afiliado@example.com",
		UserType:    auth.UserTypeAffiliate,
	}, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return payload
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
