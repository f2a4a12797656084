package store

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/models"

	"github.com/shopspring/decimal"
)

type AffiliateStore struct {
	db DB
}

func NewAffiliateStore(db DB) *AffiliateStore {
	return &AffiliateStore{db: db}
}

const affiliateColumns = `id, user_id, code, manager_id, commission_rate, loss_commission_rate, balance, total_earnings, status, created_at`

func (s *AffiliateStore) GetByID(ctx context.Context, affiliateID string) (models.Affiliate, error) {
	var row models.Affiliate
	err := s.db.GetContext(ctx, &row, `
		SELECT `+affiliateColumns+`
		FROM affiliates
		WHERE id = $1
	`, affiliateID)
	if err != nil {
		return models.Affiliate{}, err
	}
	return row, nil
}

// Credit is the only statement that moves total_earnings. amount may be negative.
func (s *AffiliateStore) Credit(ctx context.Context, tx Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE affiliates
		SET balance = balance + $1, total_earnings = total_earnings + $1
		WHERE id = $2
	`, amount, affiliateID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Withdraw affects no rows when the balance does not cover amount.
func (s *AffiliateStore) Withdraw(ctx context.Context, tx Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE affiliates
		SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
	`, amount, affiliateID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AffiliateStore) Refund(ctx context.Context, tx Execer, affiliateID string, amount decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE affiliates
		SET balance = balance + $1
		WHERE id = $2
	`, amount, affiliateID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AffiliateStore) SetManager(ctx context.Context, tx Execer, affiliateID string, managerID *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE affiliates
		SET manager_id = $1
		WHERE id = $2
	`, managerID, affiliateID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AffiliateStore) ListByManager(ctx context.Context, managerID string) ([]models.Affiliate, error) {
	var rows []models.Affiliate
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+affiliateColumns+`
		FROM affiliates
		WHERE manager_id = $1
		ORDER BY created_at
	`, managerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AffiliateStore) SumEarningsByManager(ctx context.Context, tx Getter, managerID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(total_earnings), 0)
		FROM affiliates
		WHERE manager_id = $1
	`, managerID)
	return sum, err
}
