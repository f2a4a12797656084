package services

import (
	"context"
	"sync"

	"github.com/raspadomilhao/raspay-sub003/internal/events"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/store"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type stubCofreStore struct {
	getFn            func(ctx context.Context, gameName string) (models.GameCofre, error)
	getForUpdateFn   func(ctx context.Context, tx store.Getter, gameName string) (models.GameCofre, error)
	createFn         func(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error)
	setBalanceFn     func(ctx context.Context, tx store.Execer, gameName string, balance decimal.Decimal) error
	debitFn          func(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error)
	creditFn         func(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error)
	updateSettingsFn func(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error)
	appendHistoryFn  func(ctx context.Context, tx store.Execer, input store.CofreHistoryInput) error
	listHistoryFn    func(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error)
	statisticsFn     func(ctx context.Context, gameName string) ([]store.CofreStats, error)
}

func (s stubCofreStore) Get(ctx context.Context, gameName string) (models.GameCofre, error) {
	return s.getFn(ctx, gameName)
}

func (s stubCofreStore) GetForUpdate(ctx context.Context, tx store.Getter, gameName string) (models.GameCofre, error) {
	return s.getForUpdateFn(ctx, tx, gameName)
}

func (s stubCofreStore) Create(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, tx, gameName, prizeChance)
}

func (s stubCofreStore) SetBalance(ctx context.Context, tx store.Execer, gameName string, balance decimal.Decimal) error {
	if s.setBalanceFn == nil {
		return nil
	}
	return s.setBalanceFn(ctx, tx, gameName, balance)
}

func (s stubCofreStore) Debit(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error) {
	if s.debitFn == nil {
		return 1, nil
	}
	return s.debitFn(ctx, tx, gameName, amount)
}

func (s stubCofreStore) Credit(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error) {
	if s.creditFn == nil {
		return 1, nil
	}
	return s.creditFn(ctx, tx, gameName, amount)
}

func (s stubCofreStore) UpdateSettings(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error) {
	if s.updateSettingsFn == nil {
		return 1, nil
	}
	return s.updateSettingsFn(ctx, tx, gameName, prizeChance)
}

func (s stubCofreStore) AppendHistory(ctx context.Context, tx store.Execer, input store.CofreHistoryInput) error {
	if s.appendHistoryFn == nil {
		return nil
	}
	return s.appendHistoryFn(ctx, tx, input)
}

func (s stubCofreStore) ListHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error) {
	if s.listHistoryFn == nil {
		return nil, nil
	}
	return s.listHistoryFn(ctx, gameName, eventType, limit)
}

func (s stubCofreStore) Statistics(ctx context.Context, gameName string) ([]store.CofreStats, error) {
	if s.statisticsFn == nil {
		return nil, nil
	}
	return s.statisticsFn(ctx, gameName)
}

type stubAffiliateStore struct {
	getByIDFn       func(ctx context.Context, affiliateID string) (models.Affiliate, error)
	creditFn        func(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	withdrawFn      func(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	refundFn        func(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	setManagerFn    func(ctx context.Context, tx store.Execer, affiliateID string, managerID *string) (int64, error)
	listByManagerFn func(ctx context.Context, managerID string) ([]models.Affiliate, error)
	sumEarningsFn   func(ctx context.Context, tx store.Getter, managerID string) (decimal.Decimal, error)
}

func (s stubAffiliateStore) GetByID(ctx context.Context, affiliateID string) (models.Affiliate, error) {
	return s.getByIDFn(ctx, affiliateID)
}

func (s stubAffiliateStore) Credit(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	if s.creditFn == nil {
		return 1, nil
	}
	return s.creditFn(ctx, tx, affiliateID, amount)
}

func (s stubAffiliateStore) Withdraw(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	if s.withdrawFn == nil {
		return 1, nil
	}
	return s.withdrawFn(ctx, tx, affiliateID, amount)
}

func (s stubAffiliateStore) Refund(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	if s.refundFn == nil {
		return 1, nil
	}
	return s.refundFn(ctx, tx, affiliateID, amount)
}

func (s stubAffiliateStore) SetManager(ctx context.Context, tx store.Execer, affiliateID string, managerID *string) (int64, error) {
	if s.setManagerFn == nil {
		return 1, nil
	}
	return s.setManagerFn(ctx, tx, affiliateID, managerID)
}

func (s stubAffiliateStore) ListByManager(ctx context.Context, managerID string) ([]models.Affiliate, error) {
	if s.listByManagerFn == nil {
		return nil, nil
	}
	return s.listByManagerFn(ctx, managerID)
}

func (s stubAffiliateStore) SumEarningsByManager(ctx context.Context, tx store.Getter, managerID string) (decimal.Decimal, error) {
	return s.sumEarningsFn(ctx, tx, managerID)
}

type stubManagerStore struct {
	getByIDFn       func(ctx context.Context, managerID string) (models.Manager, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, managerID string) (models.Manager, error)
	listFn          func(ctx context.Context) ([]models.Manager, error)
	listActiveIDsFn func(ctx context.Context) ([]string, error)
	setEarningsFn   func(ctx context.Context, tx store.Execer, managerID string, value decimal.Decimal) error
}

func (s stubManagerStore) GetByID(ctx context.Context, managerID string) (models.Manager, error) {
	return s.getByIDFn(ctx, managerID)
}

func (s stubManagerStore) GetForUpdate(ctx context.Context, tx store.Getter, managerID string) (models.Manager, error) {
	return s.getForUpdateFn(ctx, tx, managerID)
}

func (s stubManagerStore) List(ctx context.Context) ([]models.Manager, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubManagerStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	return s.listActiveIDsFn(ctx)
}

func (s stubManagerStore) SetEarnings(ctx context.Context, tx store.Execer, managerID string, value decimal.Decimal) error {
	if s.setEarningsFn == nil {
		return nil
	}
	return s.setEarningsFn(ctx, tx, managerID, value)
}

type stubTransactionStore struct {
	createFn           func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	getByExternalRefFn func(ctx context.Context, tx store.Getter, externalRef string) (models.Transaction, error)
	getForUpdateFn     func(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	settleFn           func(ctx context.Context, tx store.Execer, transactionID, status string) (int64, error)
	listByAffiliateFn  func(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) GetByExternalRef(ctx context.Context, tx store.Getter, externalRef string) (models.Transaction, error) {
	return s.getByExternalRefFn(ctx, tx, externalRef)
}

func (s stubTransactionStore) GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error) {
	return s.getForUpdateFn(ctx, tx, transactionID)
}

func (s stubTransactionStore) Settle(ctx context.Context, tx store.Execer, transactionID, status string) (int64, error) {
	if s.settleFn == nil {
		return 1, nil
	}
	return s.settleFn(ctx, tx, transactionID, status)
}

func (s stubTransactionStore) ListByAffiliate(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.listByAffiliateFn == nil {
		return nil, nil
	}
	return s.listByAffiliateFn(ctx, affiliateID, txType, limit, offset)
}

type stubReferrals struct {
	affiliates map[string]models.Affiliate
	err        error
	sawTx      *bool
}

func (s stubReferrals) ReferringAffiliate(_ context.Context, tx store.Selecter, userID string) (models.Affiliate, bool, error) {
	if s.sawTx != nil {
		_, *s.sawTx = tx.(*sqlx.Tx)
	}
	if s.err != nil {
		return models.Affiliate{}, false, s.err
	}
	affiliate, ok := s.affiliates[userID]
	return affiliate, ok, nil
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actor, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actor, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actor, action, entityType, entityID, data)
}

type stubUsers struct{}

func (stubUsers) GetByID(_ context.Context, userID string) (models.User, error) {
	return models.User{ID: userID, Name: "Ana Souza"}, nil
}

type stubHub struct {
	mu     sync.Mutex
	wins   []websocket.WinEvent
	vaults []websocket.VaultUpdate
}

func (s *stubHub) BroadcastWin(event websocket.WinEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wins = append(s.wins, event)
}

func (s *stubHub) BroadcastVault(update websocket.VaultUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults = append(s.vaults, update)
}

type stubFeed struct {
	invalidations int
}

func (s *stubFeed) Invalidate(context.Context) error {
	s.invalidations++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}
