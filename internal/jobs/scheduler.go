// Package jobs runs the periodic maintenance tasks: manager reconciliation,
// winner feed refresh and revocation cleanup.
package jobs

import (
	"context"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/services"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const purgeSchedule = "@daily"

type Reconciler interface {
	ReconcileManagerBalances(ctx context.Context) (services.ReconcileResult, error)
}

type FeedRefresher interface {
	Refresh(ctx context.Context) error
}

type RevocationPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Locker keeps a job to one instance when several servers share a database.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type Config struct {
	ReconcileSchedule   string
	FeedRefreshSchedule string
}

type Scheduler struct {
	cron        *cron.Cron
	cfg         Config
	reconciler  Reconciler
	feed        FeedRefresher
	revocations RevocationPurger
	lock        Locker
}

// NewScheduler builds a UTC scheduler. lock may be nil for single-instance deployments.
func NewScheduler(cfg Config, reconciler Reconciler, feed FeedRefresher, revocations RevocationPurger, lock Locker) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		cfg:         cfg,
		reconciler:  reconciler,
		feed:        feed,
		revocations: revocations,
		lock:        lock,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.reconciler != nil && s.cfg.ReconcileSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReconcileSchedule, func() { s.RunReconcile(ctx) }); err != nil {
			return err
		}
	}
	if s.feed != nil && s.cfg.FeedRefreshSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.FeedRefreshSchedule, func() { s.RunFeedRefresh(ctx) }); err != nil {
			return err
		}
	}
	if s.revocations != nil {
		if _, err := s.cron.AddFunc(purgeSchedule, func() { s.RunPurge(ctx) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	log.Info("scheduler stopped")
}

// RunReconcile skips the run when another instance holds the lock.
func (s *Scheduler) RunReconcile(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.TryLock(ctx)
		if err != nil {
			log.WithError(err).Error("[cron] reconcile lock failed")
			return
		}
		if !acquired {
			log.Debug("[cron] reconcile running elsewhere")
			return
		}
		defer func() {
			if err := s.lock.Unlock(ctx); err != nil {
				log.WithError(err).Warn("[cron] reconcile unlock failed")
			}
		}()
	}
	result, err := s.reconciler.ReconcileManagerBalances(ctx)
	if err != nil {
		log.WithError(err).Error("[cron] reconcile failed")
		return
	}
	log.WithFields(log.Fields{
		"updated": result.Updated,
		"failed":  result.Failed,
	}).Info("[cron] reconcile done")
}

func (s *Scheduler) RunFeedRefresh(ctx context.Context) {
	if err := s.feed.Refresh(ctx); err != nil {
		log.WithError(err).Warn("[cron] feed refresh failed")
	}
}

func (s *Scheduler) RunPurge(ctx context.Context) {
	purged, err := s.revocations.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("[cron] revocation purge failed")
		return
	}
	if purged > 0 {
		log.WithField("purged", purged).Info("[cron] expired revocations purged")
	}
}
