package store

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT id, email, name, referred_by, created_at FROM users WHERE id = $1`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// ReferringAffiliate returns the active affiliate that referred userID, if any.
// It reads through tx so rate and status are seen by the crediting transaction.
func (s *UserStore) ReferringAffiliate(ctx context.Context, tx Selecter, userID string) (models.Affiliate, bool, error) {
	var rows []models.Affiliate
	err := tx.SelectContext(ctx, &rows, `
		SELECT a.id, a.user_id, a.code, a.manager_id, a.commission_rate, a.loss_commission_rate,
		       a.balance, a.total_earnings, a.status, a.created_at
		FROM users u
		JOIN affiliates a ON a.id = u.referred_by
		WHERE u.id = $1 AND a.status = 'active'
	`, userID)
	if err != nil {
		return models.Affiliate{}, false, err
	}
	if len(rows) == 0 {
		return models.Affiliate{}, false, nil
	}
	return rows[0], true, nil
}
