package store

import (
	"context"
	"time"
)

// AdminStore persists revoked admin credential IDs until they expire.
type AdminStore struct {
	db DB
}

func NewAdminStore(db DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM revoked_admin_tokens
		WHERE jti = $1
	`, tokenID)
	return count > 0, err
}

func (s *AdminStore) Revoke(ctx context.Context, tx Execer, tokenID string, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO revoked_admin_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, tokenID, expiresAt)
	return err
}

// PurgeExpired drops revocations whose tokens can no longer verify anyway.
func (s *AdminStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM revoked_admin_tokens
		WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
