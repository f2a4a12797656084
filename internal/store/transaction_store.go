package store

import (
	"context"
	"strconv"

	"github.com/raspadomilhao/raspay-sub003/internal/models"

	"github.com/shopspring/decimal"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID          string
	UserID      string
	AffiliateID *string
	Type        string
	Status      string
	Amount      decimal.Decimal
	Metadata    string
	ExternalRef *string
}

const transactionColumns = `id, user_id, affiliate_id, type, amount, status, metadata, external_ref, created_at`

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	metadata := input.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, affiliate_id, type, amount, status, metadata, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, input.ID, input.UserID, input.AffiliateID, input.Type, input.Amount, input.Status, metadata, input.ExternalRef)
	return err
}

func (s *TransactionStore) GetByExternalRef(ctx context.Context, tx Getter, externalRef string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE external_ref = $1
	`, externalRef)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// Settle moves a pending transaction to a final status. Settled rows are never edited again.
func (s *TransactionStore) Settle(ctx context.Context, tx Execer, transactionID, status string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = 'pending'
	`, status, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByAffiliate returns the commission and withdraw rows owned by one affiliate.
func (s *TransactionStore) ListByAffiliate(ctx context.Context, affiliateID, txType string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE affiliate_id = $1
	`
	args := []any{affiliateID}
	param := 2
	if txType != "" {
		query += " AND type = $2"
		args = append(args, txType)
		param = 3
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(param) + " OFFSET $" + strconv.Itoa(param+1)
	args = append(args, clampLimit(limit, 50, 200), offset)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
