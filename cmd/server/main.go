package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/cache"
	"github.com/raspadomilhao/raspay-sub003/internal/config"
	"github.com/raspadomilhao/raspay-sub003/internal/db"
	"github.com/raspadomilhao/raspay-sub003/internal/events"
	"github.com/raspadomilhao/raspay-sub003/internal/handlers"
	"github.com/raspadomilhao/raspay-sub003/internal/jobs"
	"github.com/raspadomilhao/raspay-sub003/internal/services"
	"github.com/raspadomilhao/raspay-sub003/internal/store"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const reconcileLockKey = "raspay:lock:reconcile"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	setupLogging(cfg)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	staticTokens, _ := cfg.StaticAdminTokens()
	prizeTiers, _ := cfg.PrizeTiers()

	var redisClient *redis.Client
	var feedCache cache.FeedCache = cache.NewMemoryCache(cfg.FeedCacheTTL)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("failed to connect redis")
		}
		defer redisClient.Close()
		feedCache = cache.NewRedisCache(redisClient, cfg.FeedCacheTTL)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.WithError(err).Fatal("failed to connect kafka")
		}
		publisher = kafka
	}
	defer publisher.Close()

	cofres := store.NewCofreStore(database)
	affiliates := store.NewAffiliateStore(database)
	managers := store.NewManagerStore(database)
	transactions := store.NewTransactionStore(database)
	prizes := store.NewPhysicalPrizeStore(database)
	winners := store.NewWinnerStore(database)
	users := store.NewUserStore(database)
	audit := store.NewAuditStore(database)
	admins := store.NewAdminStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	feed := services.NewWinnerFeedService(winners, feedCache)
	commissions := services.NewCommissionService(txRunner, affiliates, managers, transactions, users, audit, publisher, services.CommissionConfig{
		DefaultManagerRate: cfg.DefaultManagerRate,
	})
	vault := services.NewVaultService(txRunner, cofres, audit, commissions, users, feed, hub, publisher, services.VaultConfig{
		PrizeFraction: cfg.CofrePrizeFraction,
		PrizeTiers:    prizeTiers,
	})
	inventory := services.NewInventoryService(txRunner, prizes, audit, users, feed, hub, publisher)
	authenticator := auth.NewAdminAuthenticator(cfg.JWTSecret, staticTokens, admins)
	admin := services.NewAdminService(txRunner, authenticator, admins, audit, audit, services.AdminConfig{
		PasswordHash: cfg.AdminPasswordHash,
		TokenTTL:     cfg.AdminTokenTTL,
	})

	var lock jobs.Locker
	if redisClient != nil {
		hostname, _ := os.Hostname()
		lock = cache.NewLock(redisClient, reconcileLockKey, hostname+"-"+uuid.NewString(), 10*time.Minute)
	}
	scheduler := jobs.NewScheduler(jobs.Config{
		ReconcileSchedule:   cfg.ReconcileSchedule,
		FeedRefreshSchedule: cfg.FeedRefreshSchedule,
	}, commissions, feed, admins, lock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer scheduler.Stop()

	handler := handlers.New(cfg, vault, commissions, inventory, feed, admin, authenticator, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("raspay API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func setupLogging(cfg config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
