package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/api"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/config"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/db"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/lease"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/metrics"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var lock lease.Lease
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		lock = lease.NewRedisLease(rdb, cfg.LockStaleAfter, logger)
	} else {
		lock = lease.NewPGLease(pool, cfg.LockStaleAfter, logger)
	}

	svc := econ.NewService(pool, lock, econ.Config{
		BotBudgetCents:          cfg.BotBudgetCents,
		CompanyBatch:            cfg.CompanyBatch,
		LoanBatch:               cfg.LoanBatch,
		PlayerBatch:             cfg.PlayerBatch,
		TaxBatch:                cfg.TaxBatch,
		InterestIntervalsPerDay: cfg.InterestIntervalsPerDay,
		TickEvery:               cfg.TickEvery,
		MarketVolatility:        cfg.MarketVolatility,
	}, logger)

	reg := prometheus.NewRegistry()
	svc.SetObserver(metrics.New(reg))

	if cfg.StartupSeed {
		if err := svc.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	server := api.New(cfg, logger, svc, reg)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("quickbuck api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
