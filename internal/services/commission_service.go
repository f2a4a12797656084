package services

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/db"
	"github.com/raspadomilhao/raspay-sub003/internal/events"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrAffiliateNotFound      = apperr.New(apperr.NotFound, "affiliate not found")
	ErrManagerNotFound        = apperr.New(apperr.NotFound, "manager not found")
	ErrTransactionNotFound    = apperr.New(apperr.NotFound, "transaction not found")
	ErrInsufficientCommission = apperr.New(apperr.InsufficientFunds, "affiliate balance does not cover the withdrawal")
	ErrWithdrawNotPending     = apperr.New(apperr.InvalidState, "withdrawal is not pending")
	ErrNotAWithdrawal         = apperr.New(apperr.InvalidInput, "transaction is not a withdrawal")
	ErrZeroCredit             = apperr.New(apperr.InvalidInput, "credit amount must not be zero")
	ErrExternalRefRequired    = apperr.New(apperr.InvalidInput, "external reference is required")
	ErrUserRequired           = apperr.New(apperr.InvalidInput, "user id is required")
)

const (
	CommissionEventDeposit = "deposit"
	CommissionEventLoss    = "loss"
)

type AffiliateStore interface {
	GetByID(ctx context.Context, affiliateID string) (models.Affiliate, error)
	Credit(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	Withdraw(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	Refund(ctx context.Context, tx store.Execer, affiliateID string, amount decimal.Decimal) (int64, error)
	SetManager(ctx context.Context, tx store.Execer, affiliateID string, managerID *string) (int64, error)
	ListByManager(ctx context.Context, managerID string) ([]models.Affiliate, error)
	SumEarningsByManager(ctx context.Context, tx store.Getter, managerID string) (decimal.Decimal, error)
}

type ManagerStore interface {
	GetByID(ctx context.Context, managerID string) (models.Manager, error)
	GetForUpdate(ctx context.Context, tx store.Getter, managerID string) (models.Manager, error)
	List(ctx context.Context) ([]models.Manager, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	SetEarnings(ctx context.Context, tx store.Execer, managerID string, value decimal.Decimal) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetByExternalRef(ctx context.Context, tx store.Getter, externalRef string) (models.Transaction, error)
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	Settle(ctx context.Context, tx store.Execer, transactionID, status string) (int64, error)
	ListByAffiliate(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error)
}

type ReferralLookup interface {
	ReferringAffiliate(ctx context.Context, tx store.Selecter, userID string) (models.Affiliate, bool, error)
}

type CommissionConfig struct {
	DefaultManagerRate decimal.Decimal
}

type CommissionService struct {
	txRunner     db.TxRunner
	affiliates   AffiliateStore
	managers     ManagerStore
	transactions TransactionStore
	referrals    ReferralLookup
	auditStore   AuditStore
	publisher    events.Publisher
	cfg          CommissionConfig
}

func NewCommissionService(txRunner db.TxRunner, affiliates AffiliateStore, managers ManagerStore, transactions TransactionStore, referrals ReferralLookup, auditStore AuditStore, publisher events.Publisher, cfg CommissionConfig) *CommissionService {
	if !cfg.DefaultManagerRate.IsPositive() {
		cfg.DefaultManagerRate = decimal.NewFromInt(5)
	}
	return &CommissionService{
		txRunner:     txRunner,
		affiliates:   affiliates,
		managers:     managers,
		transactions: transactions,
		referrals:    referrals,
		auditStore:   auditStore,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// CommissionEvent is a deposit or a lost stake attributed to UserID.
type CommissionEvent struct {
	Type      string
	UserID    string
	Value     decimal.Decimal
	Reference string
}

type CommissionResult struct {
	AffiliateID   string
	TransactionID string
	Amount        decimal.Decimal
	Credited      bool
}

func (r CommissionResult) event() events.Event {
	return events.New(events.TypeCommissionCredited, r.AffiliateID, map[string]string{
		"transaction_id": r.TransactionID,
		"amount":         money.Format(r.Amount),
	})
}

// ComputeAffiliateCommission returns a signed amount; loss commissions may be negative.
func ComputeAffiliateCommission(event CommissionEvent, affiliate models.Affiliate) decimal.Decimal {
	switch event.Type {
	case CommissionEventDeposit:
		return money.Percent(event.Value, affiliate.CommissionRate)
	case CommissionEventLoss:
		return money.Percent(event.Value, affiliate.LossCommissionRate)
	default:
		return decimal.Zero
	}
}

type CreditRequest struct {
	AffiliateID string
	Amount      decimal.Decimal
	Reason      string
	Source      string
	Actor       string
}

// CreditAffiliate is the manual commission path used by admins.
func (s *CommissionService) CreditAffiliate(ctx context.Context, req CreditRequest) (CommissionResult, error) {
	if req.Amount.IsZero() {
		return CommissionResult{}, ErrZeroCredit
	}
	affiliate, err := s.affiliates.GetByID(ctx, req.AffiliateID)
	if err != nil {
		if isNoRows(err) {
			return CommissionResult{}, ErrAffiliateNotFound
		}
		return CommissionResult{}, err
	}
	var result CommissionResult
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		result, err = s.credit(ctx, tx, affiliate, money.Round(req.Amount), map[string]string{
			"source": req.Source,
			"reason": req.Reason,
		})
		if err != nil {
			return err
		}
		if req.Actor == "" {
			return nil
		}
		return s.auditStore.Log(ctx, tx, req.Actor, "affiliate_credit", "affiliate", affiliate.ID, auditData(map[string]string{
			"amount": money.Format(result.Amount),
			"reason": req.Reason,
		}))
	})
	if err != nil {
		return CommissionResult{}, err
	}
	publish(ctx, s.publisher, result.event())
	return result, nil
}

// credit is the only path that moves total_earnings.
func (s *CommissionService) credit(ctx context.Context, tx *sqlx.Tx, affiliate models.Affiliate, amount decimal.Decimal, metadata map[string]string) (CommissionResult, error) {
	rows, err := s.affiliates.Credit(ctx, tx, affiliate.ID, amount)
	if err != nil {
		return CommissionResult{}, err
	}
	if rows == 0 {
		return CommissionResult{}, ErrAffiliateNotFound
	}
	direction := "credit"
	if amount.IsNegative() {
		direction = "debit"
	}
	meta := map[string]string{
		"affiliate_id": affiliate.ID,
		"direction":    direction,
	}
	for key, value := range metadata {
		if value != "" {
			meta[key] = value
		}
	}
	transactionID := uuid.NewString()
	affiliateID := affiliate.ID
	if err := s.transactions.Create(ctx, tx, store.TransactionInput{
		ID:          transactionID,
		UserID:      affiliate.UserID,
		AffiliateID: &affiliateID,
		Type:        models.TransactionCommission,
		Status:      models.StatusSuccess,
		Amount:      amount.Abs(),
		Metadata:    auditData(meta),
	}); err != nil {
		return CommissionResult{}, err
	}
	return CommissionResult{
		AffiliateID:   affiliate.ID,
		TransactionID: transactionID,
		Amount:        amount,
		Credited:      true,
	}, nil
}

// ApplyEvent credits the user's active referrer inside tx. A user without a
// referrer, or a zero commission, yields an uncredited result.
func (s *CommissionService) ApplyEvent(ctx context.Context, tx *sqlx.Tx, event CommissionEvent) (CommissionResult, error) {
	if event.UserID == "" || !event.Value.IsPositive() {
		return CommissionResult{}, nil
	}
	affiliate, ok, err := s.referrals.ReferringAffiliate(ctx, tx, event.UserID)
	if err != nil {
		return CommissionResult{}, err
	}
	if !ok {
		return CommissionResult{}, nil
	}
	amount := ComputeAffiliateCommission(event, affiliate)
	if amount.IsZero() {
		return CommissionResult{AffiliateID: affiliate.ID}, nil
	}
	return s.credit(ctx, tx, affiliate, amount, map[string]string{
		"source":    event.Type,
		"user_id":   event.UserID,
		"reference": event.Reference,
	})
}

func (s *CommissionService) ProcessEvent(ctx context.Context, event CommissionEvent) (CommissionResult, error) {
	var result CommissionResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		result, err = s.ApplyEvent(ctx, tx, event)
		return err
	})
	if err != nil {
		return CommissionResult{}, err
	}
	if result.Credited {
		publish(ctx, s.publisher, result.event())
	}
	return result, nil
}

type DepositRequest struct {
	UserID      string
	Amount      decimal.Decimal
	ExternalRef string
}

type DepositResult struct {
	TransactionID string
	Duplicate     bool
	Commission    CommissionResult
}

// RecordDeposit is idempotent on ExternalRef so provider retries are safe.
func (s *CommissionService) RecordDeposit(ctx context.Context, req DepositRequest) (DepositResult, error) {
	if req.UserID == "" {
		return DepositResult{}, ErrUserRequired
	}
	if req.ExternalRef == "" {
		return DepositResult{}, ErrExternalRefRequired
	}
	if !req.Amount.IsPositive() {
		return DepositResult{}, ErrInvalidAmount
	}
	return s.recordDeposit(ctx, req, true)
}

func (s *CommissionService) recordDeposit(ctx context.Context, req DepositRequest, retryOnConflict bool) (DepositResult, error) {
	var result DepositResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.transactions.GetByExternalRef(ctx, tx, req.ExternalRef)
		if err == nil {
			result = DepositResult{TransactionID: existing.ID, Duplicate: true}
			return nil
		}
		if !isNoRows(err) {
			return err
		}
		ref := req.ExternalRef
		transactionID := uuid.NewString()
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          transactionID,
			UserID:      req.UserID,
			Type:        models.TransactionDeposit,
			Status:      models.StatusSuccess,
			Amount:      money.Round(req.Amount),
			ExternalRef: &ref,
		}); err != nil {
			return err
		}
		commission, err := s.ApplyEvent(ctx, tx, CommissionEvent{
			Type:      CommissionEventDeposit,
			UserID:    req.UserID,
			Value:     req.Amount,
			Reference: transactionID,
		})
		if err != nil {
			return err
		}
		result = DepositResult{TransactionID: transactionID, Commission: commission}
		return nil
	})
	if err != nil {
		// A concurrent delivery of the same reference won the insert; the retry reads it back.
		if retryOnConflict && isUniqueViolation(err) {
			return s.recordDeposit(ctx, req, false)
		}
		return DepositResult{}, err
	}
	if result.Commission.Credited {
		publish(ctx, s.publisher, result.Commission.event())
	}
	return result, nil
}

type WithdrawResult struct {
	TransactionID string
	AffiliateID   string
	Amount        decimal.Decimal
	Status        string
}

// ProcessWithdraw reserves the amount and records a pending withdrawal. total_earnings is untouched.
func (s *CommissionService) ProcessWithdraw(ctx context.Context, affiliateID string, amount decimal.Decimal) (WithdrawResult, error) {
	if !amount.IsPositive() {
		return WithdrawResult{}, ErrInvalidAmount
	}
	affiliate, err := s.affiliates.GetByID(ctx, affiliateID)
	if err != nil {
		if isNoRows(err) {
			return WithdrawResult{}, ErrAffiliateNotFound
		}
		return WithdrawResult{}, err
	}
	amount = money.Round(amount)
	result := WithdrawResult{
		TransactionID: uuid.NewString(),
		AffiliateID:   affiliate.ID,
		Amount:        amount,
		Status:        models.StatusPending,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.affiliates.Withdraw(ctx, tx, affiliate.ID, amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientCommission
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          result.TransactionID,
			UserID:      affiliate.UserID,
			AffiliateID: &result.AffiliateID,
			Type:        models.TransactionWithdraw,
			Status:      models.StatusPending,
			Amount:      amount,
			Metadata:    auditData(map[string]string{"affiliate_id": affiliate.ID}),
		})
	})
	if err != nil {
		return WithdrawResult{}, err
	}
	publish(ctx, s.publisher, events.New(events.TypeWithdrawRequested, affiliate.ID, map[string]string{
		"transaction_id": result.TransactionID,
		"amount":         money.Format(amount),
	}))
	return result, nil
}

// CompleteWithdraw settles a pending withdrawal; a failed payout returns the
// reserved amount to the affiliate balance.
func (s *CommissionService) CompleteWithdraw(ctx context.Context, transactionID string, success bool, actor string) (WithdrawResult, error) {
	status := models.StatusSuccess
	if !success {
		status = models.StatusFailed
	}
	var result WithdrawResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			if isNoRows(err) {
				return ErrTransactionNotFound
			}
			return err
		}
		if row.Type != models.TransactionWithdraw {
			return ErrNotAWithdrawal
		}
		if row.Status != models.StatusPending {
			return ErrWithdrawNotPending
		}
		// The refund goes to the affiliate recorded on the withdrawal, never one derived from the user.
		if row.AffiliateID == nil || *row.AffiliateID == "" {
			return ErrAffiliateNotFound
		}
		affiliateID := *row.AffiliateID
		rows, err := s.transactions.Settle(ctx, tx, transactionID, status)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrWithdrawNotPending
		}
		if !success {
			refunded, err := s.affiliates.Refund(ctx, tx, affiliateID, row.Amount)
			if err != nil {
				return err
			}
			if refunded == 0 {
				return ErrAffiliateNotFound
			}
		}
		result = WithdrawResult{
			TransactionID: row.ID,
			AffiliateID:   affiliateID,
			Amount:        row.Amount,
			Status:        status,
		}
		return s.auditStore.Log(ctx, tx, actor, "withdraw_complete", "transaction", row.ID, auditData(map[string]string{
			"status": status,
			"amount": money.Format(row.Amount),
		}))
	})
	if err != nil {
		return WithdrawResult{}, err
	}
	publish(ctx, s.publisher, events.New(events.TypeWithdrawCompleted, result.AffiliateID, map[string]string{
		"transaction_id": result.TransactionID,
		"status":         result.Status,
		"amount":         money.Format(result.Amount),
	}))
	return result, nil
}

type ReconcileResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ReconcileManagerBalances recomputes every active manager from its affiliates'
// total earnings. Each manager commits on its own; failures are counted, not fatal.
func (s *CommissionService) ReconcileManagerBalances(ctx context.Context) (ReconcileResult, error) {
	ids, err := s.managers.ListActiveIDs(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}
	var result ReconcileResult
	for _, managerID := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.reconcileManager(ctx, managerID); err != nil {
			result.Failed++
			log.WithError(err).WithField("manager_id", managerID).Error("manager reconciliation failed")
			continue
		}
		result.Updated++
	}
	log.WithFields(log.Fields{
		"updated": result.Updated,
		"failed":  result.Failed,
	}).Info("manager balances reconciled")
	publish(ctx, s.publisher, events.New(events.TypeManagersReconciled, "managers", result))
	return result, nil
}

func (s *CommissionService) reconcileManager(ctx context.Context, managerID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		manager, err := s.managers.GetForUpdate(ctx, tx, managerID)
		if err != nil {
			return err
		}
		rate := s.cfg.DefaultManagerRate
		if manager.CommissionRate.Valid && !manager.CommissionRate.Decimal.IsZero() {
			rate = manager.CommissionRate.Decimal
		}
		sum, err := s.affiliates.SumEarningsByManager(ctx, tx, managerID)
		if err != nil {
			return err
		}
		return s.managers.SetEarnings(ctx, tx, managerID, money.Percent(sum, rate))
	})
}

func (s *CommissionService) AssignAffiliateToManager(ctx context.Context, affiliateID, managerID, actor string) error {
	if _, err := s.managers.GetByID(ctx, managerID); err != nil {
		if isNoRows(err) {
			return ErrManagerNotFound
		}
		return err
	}
	return s.setManager(ctx, affiliateID, &managerID, actor, "affiliate_assign")
}

func (s *CommissionService) UnassignAffiliate(ctx context.Context, affiliateID, actor string) error {
	return s.setManager(ctx, affiliateID, nil, actor, "affiliate_unassign")
}

func (s *CommissionService) setManager(ctx context.Context, affiliateID string, managerID *string, actor, action string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.affiliates.SetManager(ctx, tx, affiliateID, managerID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAffiliateNotFound
		}
		data := map[string]string{}
		if managerID != nil {
			data["manager_id"] = *managerID
		}
		return s.auditStore.Log(ctx, tx, actor, action, "affiliate", affiliateID, auditData(data))
	})
}

func (s *CommissionService) ListManagers(ctx context.Context) ([]models.Manager, error) {
	return s.managers.List(ctx)
}

func (s *CommissionService) ListManagerAffiliates(ctx context.Context, managerID string) ([]models.Affiliate, error) {
	if _, err := s.managers.GetByID(ctx, managerID); err != nil {
		if isNoRows(err) {
			return nil, ErrManagerNotFound
		}
		return nil, err
	}
	return s.affiliates.ListByManager(ctx, managerID)
}

func (s *CommissionService) GetAffiliate(ctx context.Context, affiliateID string) (models.Affiliate, error) {
	affiliate, err := s.affiliates.GetByID(ctx, affiliateID)
	if err != nil {
		if isNoRows(err) {
			return models.Affiliate{}, ErrAffiliateNotFound
		}
		return models.Affiliate{}, err
	}
	return affiliate, nil
}

func (s *CommissionService) ListAffiliateTransactions(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error) {
	switch txType {
	case "", models.TransactionCommission, models.TransactionWithdraw:
	default:
		return nil, apperr.New(apperr.InvalidInput, "type must be commission or withdraw")
	}
	affiliate, err := s.GetAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	return s.transactions.ListByAffiliate(ctx, affiliate.ID, txType, limit, offset)
}
