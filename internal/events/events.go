// Package events publishes domain events for consumers outside this service.
package events

import (
	"context"
	"time"
)

const (
	TypePrizePaid          = "cofre.prize_paid"
	TypeCofreAdjusted      = "cofre.adjusted"
	TypePhysicalWin        = "prize.physical_win"
	TypeLowStock           = "prize.low_stock"
	TypeCommissionCredited = "affiliate.commission_credited"
	TypeWithdrawRequested  = "affiliate.withdraw_requested"
	TypeWithdrawCompleted  = "affiliate.withdraw_completed"
	TypeManagersReconciled = "managers.reconciled"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(eventType, key string, data any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
