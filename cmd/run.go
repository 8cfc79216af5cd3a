package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"printbay/api"
	"printbay/config"
	"printbay/database"
	"printbay/events"
	"printbay/repository"
	"printbay/service"
)

const (
	leaderboardCacheTTL = time.Minute

	reconcileInterval = 5 * time.Minute
	reconcileGrace    = time.Minute
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting printbay wallet service...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Leaderboard caching is optional; the service runs without redis
	var cache *service.LeaderboardCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis URL: %w", err)
		}
		cache = service.NewLeaderboardCache(redis.NewClient(opts), leaderboardCacheTTL)
		log.Info("Leaderboard cache enabled")
	}

	auditSink := service.NewAuditSink(repository.NewAuditLogRepository(db))
	ledgerService := service.NewLedgerService(uowFactory, auditSink)
	rewardPolicy := service.NewRewardPolicy(cfg.Rewards)
	rewardService := service.NewRewardService(uowFactory, rewardPolicy)
	boostService := service.NewBoostService(uowFactory, ledgerService, cfg.Boosts, cache)
	intakeService := service.NewPaymentIntakeService(uowFactory)
	checkoutService := service.NewCheckoutService(cfg.MidtransServerKey, cfg.MidtransSandbox, uowFactory)

	reconciler := service.NewReconciliationService(uowFactory, ledgerService)
	go runReconciliationLoop(ctx, reconciler)

	server := api.NewServer(
		ledgerService,
		rewardService,
		boostService,
		intakeService,
		checkoutService,
		repository.NewOrderRepository(db),
		cfg.JWTSecret,
	)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown did not complete cleanly")
	}

	log.Info("Shutdown completed")
	return nil
}

// runReconciliationLoop sweeps orphaned boost debits at startup and then on
// an interval. The grace window keeps in-flight boosts out of the sweep.
func runReconciliationLoop(ctx context.Context, reconciler service.ReconciliationService) {
	sweep := func() {
		refunded, err := reconciler.SweepOrphanedBoostDebits(ctx, time.Now().Add(-reconcileGrace))
		if err != nil {
			log.WithError(err).Error("Boost debit reconciliation sweep failed")
			return
		}
		if refunded > 0 {
			log.WithField("refunded", refunded).Warn("Reconciliation sweep refunded orphaned boost debits")
		}
	}

	sweep()

	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
