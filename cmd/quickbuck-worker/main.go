package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/config"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/db"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/events"
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

	cfg, err := config.LoadWorkerFromEnv()
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
		logger.Info("tick lock backend", "kind", "redis", "addr", cfg.RedisAddr)
	} else {
		lock = lease.NewPGLease(pool, cfg.LockStaleAfter, logger)
		logger.Info("tick lock backend", "kind", "postgres")
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

	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		svc.SetPublisher(pub)
		logger.Info("tick publisher enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.StartupSeed {
		if err := svc.SeedDefaults(ctx); err != nil {
			logger.Error("seed defaults failed", "err", err)
			os.Exit(1)
		}
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("QB_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if _, err := svc.RunTick(ctx, "scheduler"); err != nil {
			logger.Error("tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	tickTicker := time.NewTicker(cfg.TickEvery)
	defer tickTicker.Stop()
	taxTicker := time.NewTicker(cfg.TaxSweepWait)
	defer taxTicker.Stop()

	logger.Info("worker started",
		"tick_every", cfg.TickEvery.String(),
		"tax_sweep_every", cfg.TaxSweepWait.String(),
		"volatility", cfg.MarketVolatility)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-tickTicker.C:
			_, err := svc.RunTick(ctx, "scheduler")
			if errors.Is(err, econ.ErrTickInProgress) {
				logger.Info("tick skipped, lock busy")
				continue
			}
			if err != nil {
				logger.Error("tick failed", "err", err)
			}
		case <-taxTicker.C:
			_, err := svc.RunTaxSweep(ctx, "scheduler")
			if errors.Is(err, econ.ErrTickInProgress) {
				logger.Info("tax sweep skipped, lock busy")
				continue
			}
			if err != nil {
				logger.Error("tax sweep failed", "err", err)
			}
		}
	}
}
