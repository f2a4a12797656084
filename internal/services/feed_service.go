package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/cache"
	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/money"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

type WinnerSource interface {
	ListRealWinners(ctx context.Context, limit int) ([]models.FeedItem, error)
	ListBotWinners(ctx context.Context, limit int) ([]models.FeedItem, error)
}

type FeedEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	GameName   string    `json:"game_name"`
	PrizeLabel string    `json:"prize_label,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	IsPhysical bool      `json:"is_physical"`
	IsBot      bool      `json:"is_bot"`
	CreatedAt  time.Time `json:"created_at"`
}

type FeedCounts struct {
	Real     int `json:"real"`
	Bots     int `json:"bots"`
	Physical int `json:"physical"`
	Monetary int `json:"monetary"`
}

type FeedSnapshot struct {
	Winners     []FeedEntry `json:"winners"`
	GeneratedAt time.Time   `json:"generated_at"`
	Counts      FeedCounts  `json:"counts"`
}

type WinnerFeedService struct {
	source WinnerSource
	cache  cache.FeedCache
	now    func() time.Time
	// generation moves on every Invalidate; a build that straddles one is not cached.
	generation atomic.Uint64
}

func NewWinnerFeedService(source WinnerSource, feedCache cache.FeedCache) *WinnerFeedService {
	return &WinnerFeedService{
		source: source,
		cache:  feedCache,
		now:    time.Now,
	}
}

func FeedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// GetWinnersFeed serves from cache when possible. Cache failures fall through to the database.
func (s *WinnerFeedService) GetWinnersFeed(ctx context.Context, limit int) (FeedSnapshot, error) {
	limit = FeedLimit(limit)
	key := strconv.Itoa(limit)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("winner feed cache read failed")
		}
		if ok {
			var snapshot FeedSnapshot
			if err := json.Unmarshal(cached, &snapshot); err == nil {
				return snapshot, nil
			}
		}
	}
	generation := s.generation.Load()
	snapshot, err := s.build(ctx, limit)
	if err != nil {
		return FeedSnapshot{}, err
	}
	// Another replica can still invalidate between build and Set; that snapshot
	// lives at most one TTL.
	if s.cache != nil && s.generation.Load() == generation {
		if payload, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, key, payload); err != nil {
				log.WithError(err).Warn("winner feed cache write failed")
			}
		}
	}
	return snapshot, nil
}

func (s *WinnerFeedService) build(ctx context.Context, limit int) (FeedSnapshot, error) {
	realWinners, err := s.source.ListRealWinners(ctx, limit)
	if err != nil {
		return FeedSnapshot{}, err
	}
	bots, err := s.source.ListBotWinners(ctx, limit)
	if err != nil {
		return FeedSnapshot{}, err
	}
	return MergeFeed(realWinners, bots, limit, s.now().UTC()), nil
}

// MergeFeed orders real and bot winners newest first, real before bot on equal
// timestamps, and counts the kept items.
func MergeFeed(realWinners, bots []models.FeedItem, limit int, generatedAt time.Time) FeedSnapshot {
	items := make([]models.FeedItem, 0, len(realWinners)+len(bots))
	for _, item := range realWinners {
		item.IsBot = false
		items = append(items, item)
	}
	for _, item := range bots {
		item.IsBot = true
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	snapshot := FeedSnapshot{
		Winners:     make([]FeedEntry, 0, len(items)),
		GeneratedAt: generatedAt,
	}
	for _, item := range items {
		entry := FeedEntry{
			ID:         item.ID,
			Name:       displayName(item.Name),
			GameName:   item.GameName,
			PrizeLabel: item.PrizeLabel,
			IsPhysical: item.IsPhysical,
			IsBot:      item.IsBot,
			CreatedAt:  item.CreatedAt,
		}
		if item.Amount.Valid {
			entry.Amount = money.Format(item.Amount.Decimal)
		}
		snapshot.Winners = append(snapshot.Winners, entry)
		if item.IsBot {
			snapshot.Counts.Bots++
		} else {
			snapshot.Counts.Real++
		}
		if item.IsPhysical {
			snapshot.Counts.Physical++
		} else {
			snapshot.Counts.Monetary++
		}
	}
	return snapshot
}

func (s *WinnerFeedService) Invalidate(ctx context.Context) error {
	s.generation.Add(1)
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// Refresh rebuilds the default snapshot so the first reader after a win does not pay for it.
func (s *WinnerFeedService) Refresh(ctx context.Context) error {
	if err := s.Invalidate(ctx); err != nil {
		return err
	}
	_, err := s.GetWinnersFeed(ctx, DefaultFeedLimit)
	return err
}
