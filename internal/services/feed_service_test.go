package services

import (
	"context"
	"testing"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/cache"
	"github.com/raspadomilhao/raspay-sub003/internal/models"

	"github.com/shopspring/decimal"
)

type stubWinnerSource struct {
	realWinners []models.FeedItem
	bots        []models.FeedItem
	calls       int
	onList      func()
}

func (s *stubWinnerSource) ListRealWinners(context.Context, int) ([]models.FeedItem, error) {
	s.calls++
	if s.onList != nil {
		s.onList()
	}
	return s.realWinners, nil
}

func (s *stubWinnerSource) ListBotWinners(context.Context, int) ([]models.FeedItem, error) {
	return s.bots, nil
}

func feedTimes() (time.Time, time.Time, time.Time) {
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return t1, t1.Add(time.Minute), t1.Add(2 * time.Minute)
}

func TestMergeFeedOrdersNewestFirst(t *testing.T) {
	t1, t2, t3 := feedTimes()
	realWinners := []models.FeedItem{
		{ID: "r1", Name: "Maria Silva", GameName: "mega-sorte", Amount: decimal.NewNullDecimal(dec("50")), CreatedAt: t1},
		{ID: "r3", Name: "João", GameName: "mega-sorte", PrizeLabel: "Smartphone", IsPhysical: true, CreatedAt: t3},
	}
	bots := []models.FeedItem{
		{ID: "b2", Name: "Carlos", GameName: "raspe-e-ganhe", Amount: decimal.NewNullDecimal(dec("10")), CreatedAt: t2},
	}

	snapshot := MergeFeed(realWinners, bots, 10, t3)
	if len(snapshot.Winners) != 3 {
		t.Fatalf("expected 3 winners, got %d", len(snapshot.Winners))
	}
	want := []string{"r3", "b2", "r1"}
	for i, id := range want {
		if snapshot.Winners[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, snapshot.Winners[i].ID)
		}
	}
	if snapshot.Counts.Real != 2 || snapshot.Counts.Bots != 1 {
		t.Fatalf("unexpected counts: %+v", snapshot.Counts)
	}
	if snapshot.Counts.Physical != 1 || snapshot.Counts.Monetary != 2 {
		t.Fatalf("unexpected kind counts: %+v", snapshot.Counts)
	}
	if snapshot.Winners[2].Name != "Maria" || snapshot.Winners[2].Amount != "50.00" {
		t.Fatalf("unexpected entry: %+v", snapshot.Winners[2])
	}
	if !snapshot.Winners[1].IsBot || snapshot.Winners[0].Amount != "" {
		t.Fatalf("unexpected flags: %+v", snapshot.Winners)
	}
}

func TestMergeFeedTruncatesAndCountsKept(t *testing.T) {
	t1, t2, t3 := feedTimes()
	realWinners := []models.FeedItem{{ID: "r1", CreatedAt: t1}}
	bots := []models.FeedItem{{ID: "b2", CreatedAt: t2}, {ID: "b3", CreatedAt: t3}}

	snapshot := MergeFeed(realWinners, bots, 2, t3)
	if len(snapshot.Winners) != 2 || snapshot.Winners[0].ID != "b3" {
		t.Fatalf("unexpected winners: %+v", snapshot.Winners)
	}
	if snapshot.Counts.Real != 0 || snapshot.Counts.Bots != 2 {
		t.Fatalf("unexpected counts: %+v", snapshot.Counts)
	}
	if snapshot.Winners[0].Name != "Jogador" {
		t.Fatalf("expected fallback name, got %q", snapshot.Winners[0].Name)
	}
}

func TestMergeFeedRealBeforeBotOnTie(t *testing.T) {
	t1, _, _ := feedTimes()
	snapshot := MergeFeed(
		[]models.FeedItem{{ID: "real", CreatedAt: t1}},
		[]models.FeedItem{{ID: "bot", CreatedAt: t1}},
		10, t1,
	)
	if snapshot.Winners[0].ID != "real" {
		t.Fatalf("expected real first, got %s", snapshot.Winners[0].ID)
	}
}

func TestFeedLimit(t *testing.T) {
	cases := map[int]int{0: DefaultFeedLimit, -5: DefaultFeedLimit, 7: 7, 500: MaxFeedLimit}
	for in, want := range cases {
		if got := FeedLimit(in); got != want {
			t.Fatalf("FeedLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestGetWinnersFeedUsesCache(t *testing.T) {
	t1, _, _ := feedTimes()
	source := &stubWinnerSource{realWinners: []models.FeedItem{{ID: "r1", Name: "Ana", CreatedAt: t1}}}
	service := NewWinnerFeedService(source, cache.NewMemoryCache(time.Minute))
	ctx := context.Background()

	first, err := service.GetWinnersFeed(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.GetWinnersFeed(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call, got %d", source.calls)
	}
	if len(second.Winners) != 1 || second.Winners[0].ID != first.Winners[0].ID {
		t.Fatalf("cached snapshot differs: %+v", second)
	}

	if err := service.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.GetWinnersFeed(ctx, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected rebuild after invalidate, got %d calls", source.calls)
	}
}

func TestGetWinnersFeedWithoutCache(t *testing.T) {
	source := &stubWinnerSource{}
	service := NewWinnerFeedService(source, nil)
	for i := 0; i < 2; i++ {
		snapshot, err := service.GetWinnersFeed(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot.Winners == nil || len(snapshot.Winners) != 0 {
			t.Fatalf("expected empty non-nil winners, got %#v", snapshot.Winners)
		}
	}
	if source.calls != 2 {
		t.Fatalf("expected two source calls, got %d", source.calls)
	}
}

func TestGetWinnersFeedSkipsCacheAfterConcurrentInvalidate(t *testing.T) {
	t1, _, _ := feedTimes()
	source := &stubWinnerSource{realWinners: []models.FeedItem{{ID: "r1", Name: "Ana", CreatedAt: t1}}}
	feedCache := cache.NewMemoryCache(time.Minute)
	service := NewWinnerFeedService(source, feedCache)
	source.onList = func() {
		source.onList = nil
		if err := service.Invalidate(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := service.GetWinnersFeed(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := feedCache.Get(context.Background(), "10"); ok {
		t.Fatalf("snapshot built across an invalidation must not be cached")
	}
	if _, err := service.GetWinnersFeed(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := feedCache.Get(context.Background(), "10"); !ok {
		t.Fatalf("expected the next build to be cached")
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 source reads, got %d", source.calls)
	}
}
