package store

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/models"

	"github.com/shopspring/decimal"
)

type ManagerStore struct {
	db DB
}

func NewManagerStore(db DB) *ManagerStore {
	return &ManagerStore{db: db}
}

const managerColumns = `id, user_id, name, email, commission_rate, balance, total_earnings, status, created_at`

func (s *ManagerStore) GetByID(ctx context.Context, managerID string) (models.Manager, error) {
	var row models.Manager
	err := s.db.GetContext(ctx, &row, `
		SELECT `+managerColumns+`
		FROM managers
		WHERE id = $1
	`, managerID)
	if err != nil {
		return models.Manager{}, err
	}
	return row, nil
}

func (s *ManagerStore) GetForUpdate(ctx context.Context, tx Getter, managerID string) (models.Manager, error) {
	var row models.Manager
	err := tx.GetContext(ctx, &row, `
		SELECT `+managerColumns+`
		FROM managers
		WHERE id = $1
		FOR UPDATE
	`, managerID)
	if err != nil {
		return models.Manager{}, err
	}
	return row, nil
}

func (s *ManagerStore) List(ctx context.Context) ([]models.Manager, error) {
	var rows []models.Manager
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+managerColumns+`
		FROM managers
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ManagerStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM managers
		WHERE status = 'active'
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetEarnings overwrites both balance and total_earnings with a recomputed value.
func (s *ManagerStore) SetEarnings(ctx context.Context, tx Execer, managerID string, value decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE managers
		SET balance = $1, total_earnings = $1
		WHERE id = $2
	`, value, managerID)
	return err
}
