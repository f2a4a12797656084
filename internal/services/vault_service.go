package services

import (
	"context"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
	"github.com/raspadomilhao/raspay-sub003/internal/db"
	"github.com/raspadomilhao/raspay-sub003/internal/events"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/money"
	"github.com/raspadomilhao/raspay-sub003/internal/store"
	"github.com/raspadomilhao/raspay-sub003/internal/validator"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrGameNotFound       = apperr.New(apperr.NotFound, "game not found")
	ErrGameExists         = apperr.New(apperr.InvalidState, "game already exists")
	ErrInvalidAmount      = apperr.New(apperr.InvalidInput, "amount must be greater than zero")
	ErrVaultInsufficient  = apperr.New(apperr.InsufficientFunds, "vault balance does not cover the prize")
	ErrGameNameRequired   = apperr.New(apperr.InvalidInput, "game name is required")
	ErrReasonRequired     = apperr.New(apperr.InvalidInput, "reason is required")
	ErrInvalidPrizeChance = apperr.New(apperr.InvalidInput, "prize chance must be between 0 and 100")
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	singleGameHistory   = 5
)

type CofreStore interface {
	Get(ctx context.Context, gameName string) (models.GameCofre, error)
	GetForUpdate(ctx context.Context, tx store.Getter, gameName string) (models.GameCofre, error)
	Create(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error)
	SetBalance(ctx context.Context, tx store.Execer, gameName string, balance decimal.Decimal) error
	Debit(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error)
	Credit(ctx context.Context, tx store.Execer, gameName string, amount decimal.Decimal) (int64, error)
	UpdateSettings(ctx context.Context, tx store.Execer, gameName string, prizeChance decimal.Decimal) (int64, error)
	AppendHistory(ctx context.Context, tx store.Execer, input store.CofreHistoryInput) error
	ListHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error)
	Statistics(ctx context.Context, gameName string) ([]store.CofreStats, error)
}

// CommissionApplier credits the referring affiliate inside the caller's transaction.
type CommissionApplier interface {
	ApplyEvent(ctx context.Context, tx *sqlx.Tx, event CommissionEvent) (CommissionResult, error)
}

type VaultConfig struct {
	PrizeFraction decimal.Decimal
	PrizeTiers    []decimal.Decimal
}

type VaultService struct {
	txRunner    db.TxRunner
	cofres      CofreStore
	auditStore  AuditStore
	commissions CommissionApplier
	users       UserDirectory
	feed        FeedInvalidator
	hub         FeedBroadcaster
	publisher   events.Publisher
	cfg         VaultConfig
}

func NewVaultService(txRunner db.TxRunner, cofres CofreStore, auditStore AuditStore, commissions CommissionApplier, users UserDirectory, feed FeedInvalidator, hub FeedBroadcaster, publisher events.Publisher, cfg VaultConfig) *VaultService {
	return &VaultService{
		txRunner:    txRunner,
		cofres:      cofres,
		auditStore:  auditStore,
		commissions: commissions,
		users:       users,
		feed:        feed,
		hub:         hub,
		publisher:   publisher,
		cfg:         cfg,
	}
}

type VaultStatus struct {
	GameName           string
	Balance            decimal.Decimal
	AvailableForPrizes decimal.Decimal
	PrizeChance        decimal.Decimal
	NextPrizeValues    []decimal.Decimal
	GameCount          int64
}

// ComputeAvailableForPrizes is the share of the balance that may be promised as prizes.
func (s *VaultService) ComputeAvailableForPrizes(balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return money.Round(balance.Mul(s.cfg.PrizeFraction))
}

func (s *VaultService) NextPrizeValues(available decimal.Decimal) []decimal.Decimal {
	values := make([]decimal.Decimal, 0, len(s.cfg.PrizeTiers))
	for _, tier := range s.cfg.PrizeTiers {
		value := money.Round(available.Mul(tier))
		if value.IsPositive() {
			values = append(values, value)
		}
	}
	return values
}

func (s *VaultService) status(cofre models.GameCofre) VaultStatus {
	available := s.ComputeAvailableForPrizes(cofre.Balance)
	chance := decimal.Zero
	if available.IsPositive() {
		chance = cofre.PrizeChance
	}
	return VaultStatus{
		GameName:           cofre.GameName,
		Balance:            cofre.Balance,
		AvailableForPrizes: available,
		PrizeChance:        chance,
		NextPrizeValues:    s.NextPrizeValues(available),
		GameCount:          cofre.GameCount,
	}
}

func (s *VaultService) GetStatus(ctx context.Context, gameName string) (VaultStatus, error) {
	if gameName == "" {
		return VaultStatus{}, ErrGameNameRequired
	}
	cofre, err := s.cofres.Get(ctx, gameName)
	if err != nil {
		if isNoRows(err) {
			return VaultStatus{}, ErrGameNotFound
		}
		return VaultStatus{}, err
	}
	return s.status(cofre), nil
}

type AdjustRequest struct {
	GameName string
	Delta    decimal.Decimal
	Reason   string
	Actor    string
}

type AdjustResult struct {
	GameName        string
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Adjustment      decimal.Decimal
}

// Adjust applies an admin correction. The balance has no floor here.
func (s *VaultService) Adjust(ctx context.Context, req AdjustRequest) (AdjustResult, error) {
	if req.GameName == "" {
		return AdjustResult{}, ErrGameNameRequired
	}
	if err := validator.ValidateReason(req.Reason); err != nil {
		return AdjustResult{}, ErrReasonRequired
	}
	var result AdjustResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		cofre, err := s.cofres.GetForUpdate(ctx, tx, req.GameName)
		if err != nil {
			if isNoRows(err) {
				return ErrGameNotFound
			}
			return err
		}
		newBalance := cofre.Balance.Add(req.Delta)
		if err := s.cofres.SetBalance(ctx, tx, req.GameName, newBalance); err != nil {
			return err
		}
		if err := s.cofres.AppendHistory(ctx, tx, store.CofreHistoryInput{
			ID:            uuid.NewString(),
			GameName:      req.GameName,
			EventType:     models.CofreEventAdjustment,
			Amount:        req.Delta,
			BalanceBefore: cofre.Balance,
			BalanceAfter:  newBalance,
			Reason:        req.Reason,
			Actor:         req.Actor,
		}); err != nil {
			return err
		}
		result = AdjustResult{
			GameName:        req.GameName,
			PreviousBalance: cofre.Balance,
			NewBalance:      newBalance,
			Adjustment:      req.Delta,
		}
		return s.auditStore.Log(ctx, tx, req.Actor, "cofre_adjust", "game_cofre", req.GameName, auditData(map[string]string{
			"previous_balance": money.Format(result.PreviousBalance),
			"new_balance":      money.Format(result.NewBalance),
			"adjustment":       money.Format(result.Adjustment),
			"reason":           req.Reason,
		}))
	})
	if err != nil {
		return AdjustResult{}, err
	}
	log.WithFields(log.Fields{
		"game":       req.GameName,
		"actor":      req.Actor,
		"adjustment": money.Format(req.Delta),
	}).Info("vault adjusted")
	s.broadcastVault(result.GameName, result.NewBalance)
	publish(ctx, s.publisher, events.New(events.TypeCofreAdjusted, req.GameName, map[string]string{
		"previous_balance": money.Format(result.PreviousBalance),
		"new_balance":      money.Format(result.NewBalance),
		"reason":           req.Reason,
	}))
	return result, nil
}

type PrizeEventRequest struct {
	GameName string
	UserID   string
	Amount   decimal.Decimal
	Actor    string
}

type VaultMovement struct {
	GameName        string
	HistoryID       string
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Commission      CommissionResult
}

// RecordPrizeEvent pays a monetary prize out of the vault.
func (s *VaultService) RecordPrizeEvent(ctx context.Context, req PrizeEventRequest) (VaultMovement, error) {
	if req.GameName == "" {
		return VaultMovement{}, ErrGameNameRequired
	}
	if !req.Amount.IsPositive() {
		return VaultMovement{}, ErrInvalidAmount
	}
	var result VaultMovement
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		cofre, err := s.cofres.GetForUpdate(ctx, tx, req.GameName)
		if err != nil {
			if isNoRows(err) {
				return ErrGameNotFound
			}
			return err
		}
		if req.Amount.GreaterThan(cofre.Balance) {
			return ErrVaultInsufficient
		}
		rows, err := s.cofres.Debit(ctx, tx, req.GameName, req.Amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrVaultInsufficient
		}
		result = VaultMovement{
			GameName:        req.GameName,
			HistoryID:       uuid.NewString(),
			PreviousBalance: cofre.Balance,
			NewBalance:      cofre.Balance.Sub(req.Amount),
		}
		return s.cofres.AppendHistory(ctx, tx, store.CofreHistoryInput{
			ID:            result.HistoryID,
			GameName:      req.GameName,
			UserID:        optionalString(req.UserID),
			EventType:     models.CofreEventPrize,
			Amount:        req.Amount.Neg(),
			BalanceBefore: result.PreviousBalance,
			BalanceAfter:  result.NewBalance,
			Actor:         req.Actor,
		})
	})
	if err != nil {
		return VaultMovement{}, err
	}
	invalidateFeed(ctx, s.feed)
	if s.hub != nil {
		s.hub.BroadcastWin(websocket.WinEvent{
			Type:      "win",
			GameName:  req.GameName,
			Name:      lookupDisplayName(ctx, s.users, req.UserID),
			Amount:    money.Format(req.Amount),
			CreatedAt: time.Now().UTC(),
		})
	}
	s.broadcastVault(req.GameName, result.NewBalance)
	publish(ctx, s.publisher, events.New(events.TypePrizePaid, req.GameName, map[string]string{
		"user_id":     req.UserID,
		"amount":      money.Format(req.Amount),
		"new_balance": money.Format(result.NewBalance),
	}))
	return result, nil
}

type ContributionRequest struct {
	GameName string
	UserID   string
	Amount   decimal.Decimal
	Actor    string
}

// RecordContribution adds a stake to the vault and credits the player's referrer
// with the loss commission in the same transaction.
func (s *VaultService) RecordContribution(ctx context.Context, req ContributionRequest) (VaultMovement, error) {
	if req.GameName == "" {
		return VaultMovement{}, ErrGameNameRequired
	}
	if !req.Amount.IsPositive() {
		return VaultMovement{}, ErrInvalidAmount
	}
	var result VaultMovement
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		cofre, err := s.cofres.GetForUpdate(ctx, tx, req.GameName)
		if err != nil {
			if isNoRows(err) {
				return ErrGameNotFound
			}
			return err
		}
		rows, err := s.cofres.Credit(ctx, tx, req.GameName, req.Amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrGameNotFound
		}
		result = VaultMovement{
			GameName:        req.GameName,
			HistoryID:       uuid.NewString(),
			PreviousBalance: cofre.Balance,
			NewBalance:      cofre.Balance.Add(req.Amount),
		}
		if err := s.cofres.AppendHistory(ctx, tx, store.CofreHistoryInput{
			ID:            result.HistoryID,
			GameName:      req.GameName,
			UserID:        optionalString(req.UserID),
			EventType:     models.CofreEventContribution,
			Amount:        req.Amount,
			BalanceBefore: result.PreviousBalance,
			BalanceAfter:  result.NewBalance,
			Actor:         req.Actor,
		}); err != nil {
			return err
		}
		if s.commissions == nil || req.UserID == "" {
			return nil
		}
		result.Commission, err = s.commissions.ApplyEvent(ctx, tx, CommissionEvent{
			Type:      CommissionEventLoss,
			UserID:    req.UserID,
			Value:     req.Amount,
			Reference: result.HistoryID,
		})
		return err
	})
	if err != nil {
		return VaultMovement{}, err
	}
	s.broadcastVault(req.GameName, result.NewBalance)
	if result.Commission.Credited {
		publish(ctx, s.publisher, result.Commission.event())
	}
	return result, nil
}

func (s *VaultService) UpdateSettings(ctx context.Context, gameName string, prizeChance decimal.Decimal, actor string) (VaultStatus, error) {
	if gameName == "" {
		return VaultStatus{}, ErrGameNameRequired
	}
	if err := validator.ValidatePrizeChance(prizeChance.InexactFloat64()); err != nil {
		return VaultStatus{}, ErrInvalidPrizeChance
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.cofres.UpdateSettings(ctx, tx, gameName, prizeChance)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrGameNotFound
		}
		return s.auditStore.Log(ctx, tx, actor, "cofre_settings", "game_cofre", gameName, auditData(map[string]string{
			"prize_chance": prizeChance.String(),
		}))
	})
	if err != nil {
		return VaultStatus{}, err
	}
	return s.GetStatus(ctx, gameName)
}

func (s *VaultService) CreateGame(ctx context.Context, gameName string, prizeChance decimal.Decimal, actor string) (VaultStatus, error) {
	if err := validator.ValidateGameName(gameName); err != nil {
		return VaultStatus{}, invalidInput(err)
	}
	if err := validator.ValidatePrizeChance(prizeChance.InexactFloat64()); err != nil {
		return VaultStatus{}, ErrInvalidPrizeChance
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.cofres.Create(ctx, tx, gameName, prizeChance)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrGameExists
		}
		return s.auditStore.Log(ctx, tx, actor, "cofre_create", "game_cofre", gameName, auditData(map[string]string{
			"prize_chance": prizeChance.String(),
		}))
	})
	if err != nil {
		return VaultStatus{}, err
	}
	log.WithField("game", gameName).Info("vault created")
	return s.GetStatus(ctx, gameName)
}

type GameStatistics struct {
	store.CofreStats
	AvailableForPrizes decimal.Decimal
}

type VaultStatistics struct {
	Games        []GameStatistics
	RecentPrizes []models.CofreHistory
}

// GetStatistics reports one game when gameName is set, otherwise every game.
func (s *VaultService) GetStatistics(ctx context.Context, gameName string) (VaultStatistics, error) {
	rows, err := s.cofres.Statistics(ctx, gameName)
	if err != nil {
		return VaultStatistics{}, err
	}
	if gameName != "" && len(rows) == 0 {
		return VaultStatistics{}, ErrGameNotFound
	}
	games := make([]GameStatistics, 0, len(rows))
	for _, row := range rows {
		games = append(games, GameStatistics{
			CofreStats:         row,
			AvailableForPrizes: s.ComputeAvailableForPrizes(row.Balance),
		})
	}
	limit := defaultHistoryLimit
	if gameName != "" {
		limit = singleGameHistory
	}
	recent, err := s.GetPrizeHistory(ctx, gameName, limit)
	if err != nil {
		return VaultStatistics{}, err
	}
	return VaultStatistics{Games: games, RecentPrizes: recent}, nil
}

// GetPrizeHistory lists paid prizes newest first.
func (s *VaultService) GetPrizeHistory(ctx context.Context, gameName string, limit int) ([]models.CofreHistory, error) {
	return s.cofres.ListHistory(ctx, gameName, models.CofreEventPrize, historyLimit(limit))
}

// GetHistory lists every event type; eventType narrows it when set.
func (s *VaultService) GetHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error) {
	switch eventType {
	case "", models.CofreEventPrize, models.CofreEventAdjustment, models.CofreEventContribution:
	default:
		return nil, apperr.New(apperr.InvalidInput, "unknown event type")
	}
	return s.cofres.ListHistory(ctx, gameName, eventType, historyLimit(limit))
}

func (s *VaultService) broadcastVault(gameName string, balance decimal.Decimal) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastVault(websocket.VaultUpdate{
		GameName:           gameName,
		AvailableForPrizes: money.Format(s.ComputeAvailableForPrizes(balance)),
	})
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
