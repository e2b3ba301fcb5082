package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AgriConnect/config"
	"AgriConnect/internal/consumers"
	"AgriConnect/internal/controller/rest"
	"AgriConnect/internal/controller/rest/handlers"
	"AgriConnect/internal/domain/order"
	"AgriConnect/internal/domain/payment"
	"AgriConnect/internal/external/opensearch"
	"AgriConnect/internal/external/redis"
	order_repo "AgriConnect/internal/repo/order"
	profile_repo "AgriConnect/internal/repo/profile"
	"AgriConnect/internal/webhook"
	"AgriConnect/pkg/health"
	"AgriConnect/pkg/logger"
	"AgriConnect/pkg/metrics"
	"AgriConnect/pkg/postgres"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

func Run(cfg config.Config) {
	logger.Setup(logger.Options{
		Level:        cfg.LogLevel,
		Console:      cfg.LogFormat == "console",
		Service:      serviceName,
		DispatchMode: cfg.DispatchMode,
	})
	metrics.SetInfo(serviceName, cfg.DispatchMode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	policy, err := payment.NewAmountPolicy(cfg.AmountPolicy)
	if err != nil {
		fatal("app - Run - payment.NewAmountPolicy", err)
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("RAZORPAY_WEBHOOK_SECRET is not set; webhooks will be answered with 500")
	}

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		fatal("app - Run - postgres.New", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(ctx, cfg.PgURL, MIGRATION_FS); err != nil {
		fatal("app - Run - ApplyMigrations", err)
	}

	registry := health.NewRegistry(health.NewPostgresChecker(pool.Pool))

	orderRepo := order_repo.NewPgOrderRepo(pool)
	opts := []order.ReconcileOption{
		order.WithAmountPolicy(policy),
		order.WithPostCommitHook(profile_repo.NewProfileLinker(pool)),
	}

	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			fatal("app - Run - redis.NewClient", err)
		}
		defer rdb.Close()
		opts = append(opts, order.WithAppliedCache(redis.NewAppliedCache(rdb, cfg.AppliedCacheTTL)))
		registry.Add(health.NewRedisChecker(rdb))
	}

	var outcomes handlers.OutcomeReader
	if len(cfg.OpensearchUrls) > 0 {
		sink, err := opensearch.NewOutcomeSink(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexReconciliations)
		if err != nil {
			fatal("app - Run - opensearch.NewOutcomeSink", err)
		}
		opts = append(opts, order.WithOutcomeSink(sink))
		outcomes = sink
	}

	reconciler := order.NewReconcileService(orderRepo, opts...)
	orderService := order.NewOrderService(orderRepo)

	disp := newDispatch(cfg, consumers.NewPaymentMessageController(reconciler), registry)

	engine := NewGinEngine()
	setUpProbes(engine, registry)
	router := rest.NewRouter(
		handlers.NewWebhookHandler(webhook.NewVerifier(cfg.WebhookSecret), webhook.NewDispatcher(disp.publisher)),
		handlers.NewOrderHandler(orderService),
		handlers.NewPaymentHandler(orderService, outcomes),
	)
	router.SetUp(engine)

	// Workers outlive the signal context so the in-process backlog can drain.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	runnerDone := disp.start(workerCtx, cfg.DispatchMode)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port, "dispatch_mode", cfg.DispatchMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully", "timeout", cfg.ShutdownTimeout)
	shutdown(server, disp, stopWorkers, runnerDone, cfg.ShutdownTimeout)
}

// shutdown stops intake first, then gives queued work up to timeout to finish.
func shutdown(server *http.Server, disp *dispatch, stopWorkers context.CancelFunc, runnerDone <-chan error, timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	if err := disp.publisher.Close(); err != nil {
		slog.Error("Failed to close publisher", slog.Any("error", err))
	}
	if !disp.drain {
		stopWorkers()
	}

	select {
	case err := <-runnerDone:
		if err != nil {
			slog.Error("Reconciliation workers stopped with error", slog.Any("error", err))
		}
	case <-shutdownCtx.Done():
		slog.Warn("Shutdown timeout reached; abandoning queued webhooks",
			"backlog_size", disp.backlog())
		stopWorkers()
	}

	disp.close()
	slog.Info("Shutdown complete")
}

func fatal(op string, err error) {
	slog.Error("Fatal startup error", "op", op, slog.Any("error", err))
	os.Exit(1)
}
