package store

import (
	"context"

	"github.com/raspadomilhao/raspay-sub003/internal/models"
)

// WinnerStore reads the public winner feed sources.
type WinnerStore struct {
	db DB
}

func NewWinnerStore(db DB) *WinnerStore {
	return &WinnerStore{db: db}
}

// ListRealWinners returns monetary prizes from the vault history and physical
// prize winners, newest first.
func (s *WinnerStore) ListRealWinners(ctx context.Context, limit int) ([]models.FeedItem, error) {
	var rows []models.FeedItem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, game_name, prize_label, amount, is_physical, FALSE AS is_bot, created_at
		FROM (
		    SELECT h.id, COALESCE(NULLIF(u.name, ''), 'Jogador') AS name, h.game_name,
		           '' AS prize_label, ABS(h.amount) AS amount, FALSE AS is_physical, h.created_at
		    FROM cofre_history h
		    LEFT JOIN users u ON u.id = h.user_id
		    WHERE h.event_type = 'prize'
		    UNION ALL
		    SELECT w.id, COALESCE(NULLIF(u.name, ''), 'Jogador') AS name, w.game_name,
		           p.name AS prize_label, NULL AS amount, TRUE AS is_physical, w.created_at
		    FROM physical_prize_winners w
		    JOIN physical_prizes p ON p.id = w.physical_prize_id
		    LEFT JOIN users u ON u.id = w.user_id
		) real_winners
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WinnerStore) ListBotWinners(ctx context.Context, limit int) ([]models.FeedItem, error) {
	var rows []models.FeedItem
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, display_name AS name, game_name, prize_label, amount, is_physical, TRUE AS is_bot, created_at
		FROM bot_winners
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
