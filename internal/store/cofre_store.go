package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/models"

	"github.com/shopspring/decimal"
)

type CofreStore struct {
	db DB
}

func NewCofreStore(db DB) *CofreStore {
	return &CofreStore{db: db}
}

type CofreHistoryInput struct {
	ID            string
	GameName      string
	UserID        *string
	EventType     string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Reason        string
	Actor         string
}

type CofreStats struct {
	GameName        string          `db:"game_name"`
	Balance         decimal.Decimal `db:"balance"`
	PrizeChance     decimal.Decimal `db:"prize_chance"`
	GameCount       int64           `db:"game_count"`
	TotalReceived   decimal.Decimal `db:"total_received"`
	TotalPaid       decimal.Decimal `db:"total_paid"`
	PrizeCount      int64           `db:"prize_count"`
	AdjustmentCount int64           `db:"adjustment_count"`
	LastPrizeAt     sql.NullTime    `db:"last_prize_at"`
}

const cofreColumns = `game_name, balance, prize_chance, game_count, total_received, total_paid, updated_at`

func (s *CofreStore) Get(ctx context.Context, gameName string) (models.GameCofre, error) {
	var row models.GameCofre
	err := s.db.GetContext(ctx, &row, `
		SELECT `+cofreColumns+`
		FROM game_cofres
		WHERE game_name = $1
	`, gameName)
	if err != nil {
		return models.GameCofre{}, err
	}
	return row, nil
}

func (s *CofreStore) GetForUpdate(ctx context.Context, tx Getter, gameName string) (models.GameCofre, error) {
	var row models.GameCofre
	err := tx.GetContext(ctx, &row, `
		SELECT `+cofreColumns+`
		FROM game_cofres
		WHERE game_name = $1
		FOR UPDATE
	`, gameName)
	if err != nil {
		return models.GameCofre{}, err
	}
	return row, nil
}

func (s *CofreStore) Create(ctx context.Context, tx Execer, gameName string, prizeChance decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO game_cofres (game_name, prize_chance)
		VALUES ($1, $2)
		ON CONFLICT (game_name) DO NOTHING
	`, gameName, prizeChance)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CofreStore) SetBalance(ctx context.Context, tx Execer, gameName string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE game_cofres
		SET balance = $1, updated_at = NOW()
		WHERE game_name = $2
	`, balance, gameName)
	return err
}

// Debit pays a prize out of the pool; it affects no rows when the balance is short.
func (s *CofreStore) Debit(ctx context.Context, tx Execer, gameName string, amount decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE game_cofres
		SET balance = balance - $1, total_paid = total_paid + $1, updated_at = NOW()
		WHERE game_name = $2 AND balance >= $1
	`, amount, gameName)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CofreStore) Credit(ctx context.Context, tx Execer, gameName string, amount decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE game_cofres
		SET balance = balance + $1, total_received = total_received + $1, game_count = game_count + 1, updated_at = NOW()
		WHERE game_name = $2
	`, amount, gameName)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CofreStore) UpdateSettings(ctx context.Context, tx Execer, gameName string, prizeChance decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE game_cofres
		SET prize_chance = $1, updated_at = NOW()
		WHERE game_name = $2
	`, prizeChance, gameName)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CofreStore) AppendHistory(ctx context.Context, tx Execer, input CofreHistoryInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cofre_history (id, game_name, user_id, event_type, amount, balance_before, balance_after, reason, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, input.ID, input.GameName, input.UserID, input.EventType, input.Amount, input.BalanceBefore, input.BalanceAfter, input.Reason, input.Actor)
	return err
}

// ListHistory returns newest entries first. Empty gameName or eventType means all.
func (s *CofreStore) ListHistory(ctx context.Context, gameName, eventType string, limit int) ([]models.CofreHistory, error) {
	var rows []models.CofreHistory
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, game_name, user_id, event_type, amount, balance_before, balance_after, reason, actor, created_at
		FROM cofre_history
		WHERE ($1 = '' OR game_name = $1)
		  AND ($2 = '' OR event_type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, gameName, eventType, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CofreStore) Statistics(ctx context.Context, gameName string) ([]CofreStats, error) {
	var rows []CofreStats
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.game_name, c.balance, c.prize_chance, c.game_count, c.total_received, c.total_paid,
		       COUNT(h.id) FILTER (WHERE h.event_type = 'prize') AS prize_count,
		       COUNT(h.id) FILTER (WHERE h.event_type = 'adjustment') AS adjustment_count,
		       MAX(h.created_at) FILTER (WHERE h.event_type = 'prize') AS last_prize_at
		FROM game_cofres c
		LEFT JOIN cofre_history h ON h.game_name = c.game_name
		WHERE ($1 = '' OR c.game_name = $1)
		GROUP BY c.game_name, c.balance, c.prize_chance, c.game_count, c.total_received, c.total_paid
		ORDER BY c.game_name
	`, gameName)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s CofreStats) LastPrize() *time.Time {
	if !s.LastPrizeAt.Valid {
		return nil
	}
	value := s.LastPrizeAt.Time
	return &value
}
