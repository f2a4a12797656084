package store

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/models"
)

type PhysicalPrizeStore struct {
	db DB
}

func NewPhysicalPrizeStore(db DB) *PhysicalPrizeStore {
	return &PhysicalPrizeStore{db: db}
}

type PrizeStatistics struct {
	TotalPrizes      int `db:"total_prizes"`
	ActivePrizes     int `db:"active_prizes"`
	TotalStock       int `db:"total_stock"`
	PendingWinners   int `db:"pending_winners"`
	ContactedWinners int `db:"contacted_winners"`
	ShippedWinners   int `db:"shipped_winners"`
	DeliveredWinners int `db:"delivered_winners"`
}

const prizeColumns = `id, name, description, image_url, estimated_value, stock_quantity, min_stock_alert, is_active, rarity_weight, created_at, updated_at`

func (s *PhysicalPrizeStore) Create(ctx context.Context, tx Execer, prize models.PhysicalPrize) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO physical_prizes (id, name, description, image_url, estimated_value, stock_quantity, min_stock_alert, is_active, rarity_weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, prize.ID, prize.Name, prize.Description, prize.ImageURL, prize.EstimatedValue, prize.StockQuantity, prize.MinStockAlert, prize.IsActive, prize.RarityWeight)
	return err
}

// Update edits catalog fields only; stock moves through AddStock/DecrementStock.
func (s *PhysicalPrizeStore) Update(ctx context.Context, tx Execer, prize models.PhysicalPrize) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE physical_prizes
		SET name = $1, description = $2, image_url = $3, estimated_value = $4,
		    min_stock_alert = $5, is_active = $6, rarity_weight = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
	`, prize.Name, prize.Description, prize.ImageURL, prize.EstimatedValue, prize.MinStockAlert, prize.IsActive, prize.RarityWeight, prize.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PhysicalPrizeStore) GetByID(ctx context.Context, prizeID string) (models.PhysicalPrize, error) {
	var row models.PhysicalPrize
	err := s.db.GetContext(ctx, &row, `
		SELECT `+prizeColumns+`
		FROM physical_prizes
		WHERE id = $1 AND deleted_at IS NULL
	`, prizeID)
	if err != nil {
		return models.PhysicalPrize{}, err
	}
	return row, nil
}

func (s *PhysicalPrizeStore) GetForUpdate(ctx context.Context, tx Getter, prizeID string) (models.PhysicalPrize, error) {
	var row models.PhysicalPrize
	err := tx.GetContext(ctx, &row, `
		SELECT `+prizeColumns+`
		FROM physical_prizes
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, prizeID)
	if err != nil {
		return models.PhysicalPrize{}, err
	}
	return row, nil
}

func (s *PhysicalPrizeStore) List(ctx context.Context, activeOnly bool) ([]models.PhysicalPrize, error) {
	var rows []models.PhysicalPrize
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+prizeColumns+`
		FROM physical_prizes
		WHERE deleted_at IS NULL AND ($1 = FALSE OR is_active)
		ORDER BY name, id
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PhysicalPrizeStore) AddStock(ctx context.Context, tx Getter, prizeID string, quantity int) (int, error) {
	var newStock int
	err := tx.GetContext(ctx, &newStock, `
		UPDATE physical_prizes
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING stock_quantity
	`, quantity, prizeID)
	return newStock, err
}

// DecrementStock takes one unit from an active, in-stock prize. sql.ErrNoRows means nothing was taken.
func (s *PhysicalPrizeStore) DecrementStock(ctx context.Context, tx Getter, prizeID string) (int, error) {
	var newStock int
	err := tx.GetContext(ctx, &newStock, `
		UPDATE physical_prizes
		SET stock_quantity = stock_quantity - 1, updated_at = NOW()
		WHERE id = $1 AND stock_quantity > 0 AND is_active
		RETURNING stock_quantity
	`, prizeID)
	return newStock, err
}

// Delete retires a prize from the catalog. The row stays so winner fulfillment
// records keep their prize name and count toward statistics.
func (s *PhysicalPrizeStore) Delete(ctx context.Context, tx Execer, prizeID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE physical_prizes
		SET is_active = FALSE, stock_quantity = 0, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, prizeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PhysicalPrizeStore) AppendStockLog(ctx context.Context, tx Execer, entry models.StockLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_logs (id, physical_prize_id, change_type, quantity_change, previous_stock, new_stock, reason, admin_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.PhysicalPrizeID, entry.ChangeType, entry.QuantityChange, entry.PreviousStock, entry.NewStock, entry.Reason, entry.AdminUser)
	return err
}

func (s *PhysicalPrizeStore) ListStockLogs(ctx context.Context, prizeID string, limit int) ([]models.StockLog, error) {
	var rows []models.StockLog
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, physical_prize_id, change_type, quantity_change, previous_stock, new_stock, reason, admin_user, created_at
		FROM stock_logs
		WHERE physical_prize_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, prizeID, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PhysicalPrizeStore) CreateWinner(ctx context.Context, tx Execer, winner models.PhysicalPrizeWinner) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO physical_prize_winners (id, user_id, physical_prize_id, game_name, status,
		    delivery_name, delivery_phone, delivery_address, delivery_city, delivery_state, delivery_zip, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, winner.ID, winner.UserID, winner.PhysicalPrizeID, winner.GameName, winner.Status,
		winner.DeliveryName, winner.DeliveryPhone, winner.DeliveryAddress, winner.DeliveryCity, winner.DeliveryState, winner.DeliveryZip, winner.Notes)
	return err
}

func (s *PhysicalPrizeStore) CountOpenWinners(ctx context.Context, tx Getter, prizeID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM physical_prize_winners
		WHERE physical_prize_id = $1 AND status <> 'delivered'
	`, prizeID)
	return count, err
}

const winnerSelect = `
		SELECT w.id, w.user_id, w.physical_prize_id, p.name AS prize_name, w.game_name, w.status,
		       w.delivery_name, w.delivery_phone, w.delivery_address, w.delivery_city, w.delivery_state,
		       w.delivery_zip, w.tracking_code, w.notes, w.created_at, w.updated_at
		FROM physical_prize_winners w
		JOIN physical_prizes p ON p.id = w.physical_prize_id
`

func (s *PhysicalPrizeStore) ListWinners(ctx context.Context, status string, limit, offset int) ([]models.PhysicalPrizeWinner, error) {
	var rows []models.PhysicalPrizeWinner
	err := s.db.SelectContext(ctx, &rows, winnerSelect+`
		WHERE ($1 = '' OR w.status = $1)
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3
	`, status, clampLimit(limit, 50, 200), offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PhysicalPrizeStore) GetWinnerForUpdate(ctx context.Context, tx Getter, winnerID string) (models.PhysicalPrizeWinner, error) {
	var row models.PhysicalPrizeWinner
	err := tx.GetContext(ctx, &row, winnerSelect+`
		WHERE w.id = $1
		FOR UPDATE OF w
	`, winnerID)
	if err != nil {
		return models.PhysicalPrizeWinner{}, err
	}
	return row, nil
}

func (s *PhysicalPrizeStore) UpdateWinnerStatus(ctx context.Context, tx Execer, winnerID, status, trackingCode string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE physical_prize_winners
		SET status = $1, tracking_code = COALESCE(NULLIF($2, ''), tracking_code), updated_at = NOW()
		WHERE id = $3
	`, status, trackingCode, winnerID)
	return err
}

func (s *PhysicalPrizeStore) Statistics(ctx context.Context) (PrizeStatistics, error) {
	var stats PrizeStatistics
	err := s.db.GetContext(ctx, &stats, `
		SELECT
		    (SELECT COUNT(1) FROM physical_prizes WHERE deleted_at IS NULL) AS total_prizes,
		    (SELECT COUNT(1) FROM physical_prizes WHERE deleted_at IS NULL AND is_active) AS active_prizes,
		    (SELECT COALESCE(SUM(stock_quantity), 0) FROM physical_prizes WHERE deleted_at IS NULL) AS total_stock,
		    COUNT(w.id) FILTER (WHERE w.status = 'pending') AS pending_winners,
		    COUNT(w.id) FILTER (WHERE w.status = 'contacted') AS contacted_winners,
		    COUNT(w.id) FILTER (WHERE w.status = 'shipped') AS shipped_winners,
		    COUNT(w.id) FILTER (WHERE w.status = 'delivered') AS delivered_winners
		FROM physical_prize_winners w
	`)
	return stats, err
}
