package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionDeposit    = "deposit"
	TransactionWithdraw   = "withdraw"
	TransactionCommission = "commission"

	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Transaction struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	AffiliateID *string         `db:"affiliate_id" json:"affiliate_id,omitempty"`
	Type        string          `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	Metadata    string          `db:"metadata" json:"metadata"`
	ExternalRef *string         `db:"external_ref" json:"external_ref,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type GameCofre struct {
	GameName      string          `db:"game_name" json:"game_name"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	PrizeChance   decimal.Decimal `db:"prize_chance" json:"prize_chance"`
	GameCount     int64           `db:"game_count" json:"game_count"`
	TotalReceived decimal.Decimal `db:"total_received" json:"total_received"`
	TotalPaid     decimal.Decimal `db:"total_paid" json:"total_paid"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	CofreEventPrize        = "prize"
	CofreEventAdjustment   = "adjustment"
	CofreEventContribution = "contribution"
)

type CofreHistory struct {
	ID            string          `db:"id" json:"id"`
	GameName      string          `db:"game_name" json:"game_name"`
	UserID        *string         `db:"user_id" json:"user_id,omitempty"`
	EventType     string          `db:"event_type" json:"event_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reason        string          `db:"reason" json:"reason"`
	Actor         string          `db:"actor" json:"actor"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

const (
	PartnerActive   = "active"
	PartnerInactive = "inactive"
)

type Affiliate struct {
	ID                 string          `db:"id" json:"id"`
	UserID             string          `db:"user_id" json:"user_id"`
	Code               string          `db:"code" json:"code"`
	ManagerID          *string         `db:"manager_id" json:"manager_id,omitempty"`
	CommissionRate     decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	LossCommissionRate decimal.Decimal `db:"loss_commission_rate" json:"loss_commission_rate"`
	Balance            decimal.Decimal `db:"balance" json:"balance"`
	TotalEarnings      decimal.Decimal `db:"total_earnings" json:"total_earnings"`
	Status             string          `db:"status" json:"status"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

type Manager struct {
	ID             string              `db:"id" json:"id"`
	UserID         string              `db:"user_id" json:"user_id"`
	Name           string              `db:"name" json:"name"`
	Email          string              `db:"email" json:"email"`
	CommissionRate decimal.NullDecimal `db:"commission_rate" json:"commission_rate"`
	Balance        decimal.Decimal     `db:"balance" json:"balance"`
	TotalEarnings  decimal.Decimal     `db:"total_earnings" json:"total_earnings"`
	Status         string              `db:"status" json:"status"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

type User struct {
	ID         string    `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	ReferredBy *string   `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type PhysicalPrize struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	ImageURL       string          `db:"image_url" json:"image_url"`
	EstimatedValue decimal.Decimal `db:"estimated_value" json:"estimated_value"`
	StockQuantity  int             `db:"stock_quantity" json:"stock_quantity"`
	MinStockAlert  int             `db:"min_stock_alert" json:"min_stock_alert"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	RarityWeight   int             `db:"rarity_weight" json:"rarity_weight"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (p PhysicalPrize) LowStock() bool {
	return p.StockQuantity <= p.MinStockAlert
}

const (
	WinnerPending   = "pending"
	WinnerContacted = "contacted"
	WinnerShipped   = "shipped"
	WinnerDelivered = "delivered"
)

type PhysicalPrizeWinner struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	PhysicalPrizeID string    `db:"physical_prize_id" json:"physical_prize_id"`
	PrizeName       string    `db:"prize_name" json:"prize_name"`
	GameName        string    `db:"game_name" json:"game_name"`
	Status          string    `db:"status" json:"status"`
	DeliveryName    string    `db:"delivery_name" json:"delivery_name"`
	DeliveryPhone   string    `db:"delivery_phone" json:"delivery_phone"`
	DeliveryAddress string    `db:"delivery_address" json:"delivery_address"`
	DeliveryCity    string    `db:"delivery_city" json:"delivery_city"`
	DeliveryState   string    `db:"delivery_state" json:"delivery_state"`
	DeliveryZip     string    `db:"delivery_zip" json:"delivery_zip"`
	TrackingCode    string    `db:"tracking_code" json:"tracking_code"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	StockAdd    = "add"
	StockWin    = "win"
	StockRemove = "remove"
)

type StockLog struct {
	ID              string    `db:"id" json:"id"`
	PhysicalPrizeID string    `db:"physical_prize_id" json:"physical_prize_id"`
	ChangeType      string    `db:"change_type" json:"change_type"`
	QuantityChange  int       `db:"quantity_change" json:"quantity_change"`
	PreviousStock   int       `db:"previous_stock" json:"previous_stock"`
	NewStock        int       `db:"new_stock" json:"new_stock"`
	Reason          string    `db:"reason" json:"reason"`
	AdminUser       string    `db:"admin_user" json:"admin_user"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type BotWinner struct {
	ID          string              `db:"id" json:"id"`
	DisplayName string              `db:"display_name" json:"display_name"`
	GameName    string              `db:"game_name" json:"game_name"`
	PrizeLabel  string              `db:"prize_label" json:"prize_label"`
	Amount      decimal.NullDecimal `db:"amount" json:"amount"`
	IsPhysical  bool                `db:"is_physical" json:"is_physical"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// FeedItem is one public winner row, real or synthetic.
type FeedItem struct {
	ID         string              `db:"id" json:"id"`
	Name       string              `db:"name" json:"name"`
	GameName   string              `db:"game_name" json:"game_name"`
	PrizeLabel string              `db:"prize_label" json:"prize_label"`
	Amount     decimal.NullDecimal `db:"amount" json:"-"`
	IsPhysical bool                `db:"is_physical" json:"is_physical"`
	IsBot      bool                `db:"is_bot" json:"is_bot"`
	CreatedAt  time.Time           `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Data       string    `db:"data" json:"data"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
