package services

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
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
	ErrPrizeNotFound          = apperr.New(apperr.NotFound, "prize not found")
	ErrWinnerNotFound         = apperr.New(apperr.NotFound, "winner not found")
	ErrOutOfStock             = apperr.New(apperr.OutOfStock, "prize is out of stock")
	ErrNoPrizeAvailable       = apperr.New(apperr.OutOfStock, "no prize available to draw")
	ErrPrizeHasOpenWinners    = apperr.New(apperr.InvalidState, "prize has winners awaiting delivery")
	ErrStatusRegression       = apperr.New(apperr.InvalidState, "winner status can only move forward")
	ErrInvalidEstimatedValue  = apperr.New(apperr.InvalidInput, "estimated value must not be negative")
	ErrWinnerUserRequired     = apperr.New(apperr.InvalidInput, "user id is required")
	ErrDeliveryStatusRequired = apperr.New(apperr.InvalidInput, "status is required")
)

type PrizeStore interface {
	Create(ctx context.Context, tx store.Execer, prize models.PhysicalPrize) error
	Update(ctx context.Context, tx store.Execer, prize models.PhysicalPrize) (int64, error)
	GetByID(ctx context.Context, prizeID string) (models.PhysicalPrize, error)
	GetForUpdate(ctx context.Context, tx store.Getter, prizeID string) (models.PhysicalPrize, error)
	List(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error)
	AddStock(ctx context.Context, tx store.Getter, prizeID string, quantity int) (int, error)
	DecrementStock(ctx context.Context, tx store.Getter, prizeID string) (int, error)
	Delete(ctx context.Context, tx store.Execer, prizeID string) (int64, error)
	AppendStockLog(ctx context.Context, tx store.Execer, entry models.StockLog) error
	ListStockLogs(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error)
	CreateWinner(ctx context.Context, tx store.Execer, winner models.PhysicalPrizeWinner) error
	CountOpenWinners(ctx context.Context, tx store.Getter, prizeID string) (int, error)
	ListWinners(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error)
	GetWinnerForUpdate(ctx context.Context, tx store.Getter, winnerID string) (models.PhysicalPrizeWinner, error)
	UpdateWinnerStatus(ctx context.Context, tx store.Execer, winnerID, status, trackingCode string) error
	Statistics(ctx context.Context) (store.PrizeStatistics, error)
}

type InventoryService struct {
	txRunner   db.TxRunner
	prizes     PrizeStore
	auditStore AuditStore
	users      UserDirectory
	feed       FeedInvalidator
	hub        FeedBroadcaster
	publisher  events.Publisher

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewInventoryService(txRunner db.TxRunner, prizes PrizeStore, auditStore AuditStore, users UserDirectory, feed FeedInvalidator, hub FeedBroadcaster, publisher events.Publisher) *InventoryService {
	return &InventoryService{
		txRunner:   txRunner,
		prizes:     prizes,
		auditStore: auditStore,
		users:      users,
		feed:       feed,
		hub:        hub,
		publisher:  publisher,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type PrizeInput struct {
	Name           string
	Description    string
	ImageURL       string
	EstimatedValue decimal.Decimal
	StockQuantity  int
	MinStockAlert  int
	IsActive       bool
	RarityWeight   int
}

func (in PrizeInput) validate() error {
	if err := validator.ValidatePrizeName(in.Name); err != nil {
		return invalidInput(err)
	}
	if in.EstimatedValue.IsNegative() {
		return ErrInvalidEstimatedValue
	}
	if err := validator.ValidateStockLevels(in.StockQuantity, in.MinStockAlert); err != nil {
		return invalidInput(err)
	}
	if err := validator.ValidateRarity(in.RarityWeight); err != nil {
		return invalidInput(err)
	}
	return nil
}

func (in PrizeInput) prize(id string) models.PhysicalPrize {
	return models.PhysicalPrize{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		EstimatedValue: money.Round(in.EstimatedValue),
		StockQuantity:  in.StockQuantity,
		MinStockAlert:  in.MinStockAlert,
		IsActive:       in.IsActive,
		RarityWeight:   in.RarityWeight,
	}
}

// CreatePrize logs the opening stock as an add so every unit is accounted for.
func (s *InventoryService) CreatePrize(ctx context.Context, input PrizeInput, actor string) (models.PhysicalPrize, error) {
	if err := input.validate(); err != nil {
		return models.PhysicalPrize{}, err
	}
	prize := input.prize(uuid.NewString())
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.prizes.Create(ctx, tx, prize); err != nil {
			return err
		}
		if prize.StockQuantity > 0 {
			if err := s.prizes.AppendStockLog(ctx, tx, models.StockLog{
				ID:              uuid.NewString(),
				PhysicalPrizeID: prize.ID,
				ChangeType:      models.StockAdd,
				QuantityChange:  prize.StockQuantity,
				PreviousStock:   0,
				NewStock:        prize.StockQuantity,
				Reason:          "initial stock",
				AdminUser:       actor,
			}); err != nil {
				return err
			}
		}
		return s.auditStore.Log(ctx, tx, actor, "prize_create", "physical_prize", prize.ID, auditData(map[string]string{
			"name":  prize.Name,
			"stock": strconv.Itoa(prize.StockQuantity),
		}))
	})
	if err != nil {
		return models.PhysicalPrize{}, err
	}
	return s.prizes.GetByID(ctx, prize.ID)
}

// UpdatePrize edits catalog fields; StockQuantity in input is ignored.
func (s *InventoryService) UpdatePrize(ctx context.Context, prizeID string, input PrizeInput, actor string) (models.PhysicalPrize, error) {
	input.StockQuantity = 0
	if err := input.validate(); err != nil {
		return models.PhysicalPrize{}, err
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.prizes.Update(ctx, tx, input.prize(prizeID))
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPrizeNotFound
		}
		return s.auditStore.Log(ctx, tx, actor, "prize_update", "physical_prize", prizeID, auditData(map[string]any{
			"name":      input.Name,
			"is_active": input.IsActive,
		}))
	})
	if err != nil {
		return models.PhysicalPrize{}, err
	}
	return s.prizes.GetByID(ctx, prizeID)
}

func (s *InventoryService) GetPrize(ctx context.Context, prizeID string) (models.PhysicalPrize, error) {
	prize, err := s.prizes.GetByID(ctx, prizeID)
	if err != nil {
		if isNoRows(err) {
			return models.PhysicalPrize{}, ErrPrizeNotFound
		}
		return models.PhysicalPrize{}, err
	}
	return prize, nil
}

func (s *InventoryService) ListPrizes(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error) {
	return s.prizes.List(ctx, activeOnly)
}

type StockRequest struct {
	PrizeID   string
	Quantity  int
	Reason    string
	AdminUser string
}

type StockResult struct {
	PrizeID       string
	PreviousStock int
	NewStock      int
}

func (s *InventoryService) AddStock(ctx context.Context, req StockRequest) (StockResult, error) {
	if err := validator.ValidateQuantity(req.Quantity); err != nil {
		return StockResult{}, invalidInput(err)
	}
	var result StockResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		prize, err := s.prizes.GetForUpdate(ctx, tx, req.PrizeID)
		if err != nil {
			if isNoRows(err) {
				return ErrPrizeNotFound
			}
			return err
		}
		newStock, err := s.prizes.AddStock(ctx, tx, req.PrizeID, req.Quantity)
		if err != nil {
			return err
		}
		result = StockResult{PrizeID: req.PrizeID, PreviousStock: prize.StockQuantity, NewStock: newStock}
		if err := s.prizes.AppendStockLog(ctx, tx, models.StockLog{
			ID:              uuid.NewString(),
			PhysicalPrizeID: req.PrizeID,
			ChangeType:      models.StockAdd,
			QuantityChange:  req.Quantity,
			PreviousStock:   prize.StockQuantity,
			NewStock:        newStock,
			Reason:          req.Reason,
			AdminUser:       req.AdminUser,
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, req.AdminUser, "prize_stock_add", "physical_prize", req.PrizeID, auditData(map[string]any{
			"quantity":  req.Quantity,
			"new_stock": newStock,
			"reason":    req.Reason,
		}))
	})
	if err != nil {
		return StockResult{}, err
	}
	return result, nil
}

type WinRequest struct {
	PrizeID         string
	UserID          string
	GameName        string
	DeliveryName    string
	DeliveryPhone   string
	DeliveryAddress string
	DeliveryCity    string
	DeliveryState   string
	DeliveryZip     string
	Notes           string
}

// DecrementOnWin takes one unit and records the winner and its stock log atomically.
func (s *InventoryService) DecrementOnWin(ctx context.Context, req WinRequest) (models.PhysicalPrizeWinner, error) {
	if req.UserID == "" {
		return models.PhysicalPrizeWinner{}, ErrWinnerUserRequired
	}
	var winner models.PhysicalPrizeWinner
	var prize models.PhysicalPrize
	var newStock int
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		prize, err = s.prizes.GetForUpdate(ctx, tx, req.PrizeID)
		if err != nil {
			if isNoRows(err) {
				return ErrPrizeNotFound
			}
			return err
		}
		if !prize.IsActive || prize.StockQuantity <= 0 {
			return ErrOutOfStock
		}
		newStock, err = s.prizes.DecrementStock(ctx, tx, req.PrizeID)
		if err != nil {
			if isNoRows(err) {
				return ErrOutOfStock
			}
			return err
		}
		winner = models.PhysicalPrizeWinner{
			ID:              uuid.NewString(),
			UserID:          req.UserID,
			PhysicalPrizeID: req.PrizeID,
			PrizeName:       prize.Name,
			GameName:        req.GameName,
			Status:          models.WinnerPending,
			DeliveryName:    req.DeliveryName,
			DeliveryPhone:   req.DeliveryPhone,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryCity:    req.DeliveryCity,
			DeliveryState:   req.DeliveryState,
			DeliveryZip:     req.DeliveryZip,
			Notes:           req.Notes,
		}
		if err := s.prizes.CreateWinner(ctx, tx, winner); err != nil {
			return err
		}
		return s.prizes.AppendStockLog(ctx, tx, models.StockLog{
			ID:              uuid.NewString(),
			PhysicalPrizeID: req.PrizeID,
			ChangeType:      models.StockWin,
			QuantityChange:  -1,
			PreviousStock:   prize.StockQuantity,
			NewStock:        newStock,
			Reason:          "prize won",
			AdminUser:       "system",
		})
	})
	if err != nil {
		return models.PhysicalPrizeWinner{}, err
	}
	now := time.Now().UTC()
	winner.CreatedAt = now
	winner.UpdatedAt = now

	invalidateFeed(ctx, s.feed)
	if s.hub != nil {
		s.hub.BroadcastWin(websocket.WinEvent{
			Type:       "physical_win",
			GameName:   req.GameName,
			Name:       lookupDisplayName(ctx, s.users, req.UserID),
			PrizeLabel: prize.Name,
			IsPhysical: true,
			CreatedAt:  now,
		})
	}
	publish(ctx, s.publisher, events.New(events.TypePhysicalWin, req.PrizeID, map[string]string{
		"winner_id": winner.ID,
		"user_id":   req.UserID,
		"game_name": req.GameName,
	}))
	if newStock <= prize.MinStockAlert {
		log.WithFields(log.Fields{
			"prize_id": req.PrizeID,
			"stock":    newStock,
		}).Warn("physical prize stock is low")
		publish(ctx, s.publisher, events.New(events.TypeLowStock, req.PrizeID, map[string]any{
			"name":            prize.Name,
			"stock_quantity":  newStock,
			"min_stock_alert": prize.MinStockAlert,
		}))
	}
	return winner, nil
}

// DrawAndAward picks a prize by rarity weight and awards it to the player.
func (s *InventoryService) DrawAndAward(ctx context.Context, req WinRequest) (models.PhysicalPrizeWinner, error) {
	prizes, err := s.prizes.List(ctx, true)
	if err != nil {
		return models.PhysicalPrizeWinner{}, err
	}
	s.rngMu.Lock()
	prize, ok := PickPrize(prizes, s.rng)
	s.rngMu.Unlock()
	if !ok {
		return models.PhysicalPrizeWinner{}, ErrNoPrizeAvailable
	}
	req.PrizeID = prize.ID
	return s.DecrementOnWin(ctx, req)
}

// PickPrize draws among active, in-stock prizes with probability proportional to RarityWeight.
func PickPrize(prizes []models.PhysicalPrize, rng *rand.Rand) (models.PhysicalPrize, bool) {
	total := 0
	for _, prize := range prizes {
		if eligible(prize) {
			total += prize.RarityWeight
		}
	}
	if total == 0 {
		return models.PhysicalPrize{}, false
	}
	pick := rng.Intn(total)
	for _, prize := range prizes {
		if !eligible(prize) {
			continue
		}
		if pick < prize.RarityWeight {
			return prize, true
		}
		pick -= prize.RarityWeight
	}
	return models.PhysicalPrize{}, false
}

func eligible(prize models.PhysicalPrize) bool {
	return prize.IsActive && prize.StockQuantity > 0 && prize.RarityWeight > 0
}

// DeletePrize refuses while any winner still awaits delivery. Remaining stock is
// logged as removed before the row goes away.
func (s *InventoryService) DeletePrize(ctx context.Context, prizeID, actor string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		prize, err := s.prizes.GetForUpdate(ctx, tx, prizeID)
		if err != nil {
			if isNoRows(err) {
				return ErrPrizeNotFound
			}
			return err
		}
		open, err := s.prizes.CountOpenWinners(ctx, tx, prizeID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrPrizeHasOpenWinners
		}
		if prize.StockQuantity > 0 {
			if err := s.prizes.AppendStockLog(ctx, tx, models.StockLog{
				ID:              uuid.NewString(),
				PhysicalPrizeID: prizeID,
				ChangeType:      models.StockRemove,
				QuantityChange:  -prize.StockQuantity,
				PreviousStock:   prize.StockQuantity,
				NewStock:        0,
				Reason:          "prize deleted",
				AdminUser:       actor,
			}); err != nil {
				return err
			}
		}
		rows, err := s.prizes.Delete(ctx, tx, prizeID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPrizeNotFound
		}
		return s.auditStore.Log(ctx, tx, actor, "prize_delete", "physical_prize", prizeID, auditData(map[string]string{
			"name": prize.Name,
		}))
	})
}

type InventoryStatistics struct {
	store.PrizeStatistics
	LowStock []models.PhysicalPrize
}

func (s *InventoryService) Statistics(ctx context.Context) (InventoryStatistics, error) {
	stats, err := s.prizes.Statistics(ctx)
	if err != nil {
		return InventoryStatistics{}, err
	}
	prizes, err := s.prizes.List(ctx, true)
	if err != nil {
		return InventoryStatistics{}, err
	}
	low := make([]models.PhysicalPrize, 0)
	for _, prize := range prizes {
		if prize.LowStock() {
			low = append(low, prize)
		}
	}
	return InventoryStatistics{PrizeStatistics: stats, LowStock: low}, nil
}

func (s *InventoryService) ListWinners(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error) {
	if status != "" {
		if err := validator.ValidateWinnerStatus(status); err != nil {
			return nil, invalidInput(err)
		}
	}
	return s.prizes.ListWinners(ctx, status, limit, offset)
}

// UpdateWinnerStatus only moves forward through pending, contacted, shipped and
// delivered. Repeating the current status is allowed to attach a tracking code.
func (s *InventoryService) UpdateWinnerStatus(ctx context.Context, winnerID, status, trackingCode, actor string) (models.PhysicalPrizeWinner, error) {
	if status == "" {
		return models.PhysicalPrizeWinner{}, ErrDeliveryStatusRequired
	}
	if err := validator.ValidateWinnerStatus(status); err != nil {
		return models.PhysicalPrizeWinner{}, invalidInput(err)
	}
	trackingCode = strings.TrimSpace(trackingCode)
	var winner models.PhysicalPrizeWinner
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		winner, err = s.prizes.GetWinnerForUpdate(ctx, tx, winnerID)
		if err != nil {
			if isNoRows(err) {
				return ErrWinnerNotFound
			}
			return err
		}
		current := validator.WinnerStatusRank(winner.Status)
		next := validator.WinnerStatusRank(status)
		if next < current || (next == current && trackingCode == "") {
			return ErrStatusRegression
		}
		if err := s.prizes.UpdateWinnerStatus(ctx, tx, winnerID, status, trackingCode); err != nil {
			return err
		}
		previous := winner.Status
		winner.Status = status
		if trackingCode != "" {
			winner.TrackingCode = trackingCode
		}
		return s.auditStore.Log(ctx, tx, actor, "winner_status", "physical_prize_winner", winnerID, auditData(map[string]string{
			"from":          previous,
			"to":            status,
			"tracking_code": trackingCode,
		}))
	})
	if err != nil {
		return models.PhysicalPrizeWinner{}, err
	}
	return winner, nil
}

func (s *InventoryService) ListStockLogs(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error) {
	if _, err := s.GetPrize(ctx, prizeID); err != nil {
		return nil, err
	}
	return s.prizes.ListStockLogs(ctx, prizeID, limit)
}
