package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// WorkerConfig carries every deploy-time tuning knob for the tick engine.
// None of these are runtime-tunable; the worker and API read them once at
// startup.
type WorkerConfig struct {
	Addr        string
	DatabaseURL string
	AdminToken  string

	TickEvery    time.Duration
	TaxSweepWait time.Duration

	BotBudgetCents int64
	CompanyBatch   int
	LoanBatch      int
	PlayerBatch    int
	TaxBatch       int

	LockStaleAfter          time.Duration
	InterestIntervalsPerDay int
	MarketVolatility        string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	StartupSeed bool
}

type CLIConfig struct {
	APIBaseURL string
	AdminToken string
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("QB_API_ADDR", ":8080")
	}

	cfg := WorkerConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AdminToken:  strings.TrimSpace(os.Getenv("QB_ADMIN_TOKEN")),

		TickEvery:    envDurationDefault("QB_TICK_EVERY", 5*time.Minute),
		TaxSweepWait: envDurationDefault("QB_TAX_SWEEP_EVERY", time.Hour),

		BotBudgetCents: envInt64Default("QB_BOT_BUDGET_CENTS", 50_000_000),
		CompanyBatch:   envIntDefault("QB_COMPANY_BATCH", 10),
		LoanBatch:      envIntDefault("QB_LOAN_BATCH", 100),
		PlayerBatch:    envIntDefault("QB_PLAYER_BATCH", 10),
		TaxBatch:       envIntDefault("QB_TAX_BATCH", 50),

		LockStaleAfter:          envDurationDefault("QB_LOCK_STALE_AFTER", 10*time.Minute),
		InterestIntervalsPerDay: envIntDefault("QB_INTEREST_INTERVALS_PER_DAY", 72),
		MarketVolatility:        envVolatilityDefault(),

		RedisAddr:    strings.TrimSpace(os.Getenv("QB_REDIS_ADDR")),
		KafkaBrokers: envListDefault("QB_KAFKA_BROKERS", nil),
		KafkaTopic:   envDefault("QB_KAFKA_TOPIC", "econ.ticks"),

		StartupSeed: envBoolDefault("QB_STARTUP_SEED", false),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BotBudgetCents < 0 {
		return cfg, fmt.Errorf("QB_BOT_BUDGET_CENTS must be >= 0")
	}
	if cfg.InterestIntervalsPerDay <= 0 {
		return cfg, fmt.Errorf("QB_INTEREST_INTERVALS_PER_DAY must be > 0")
	}
	// The staleness threshold must exceed the worst-case pipeline duration,
	// otherwise a slow but alive holder can be preempted mid-tick.
	if cfg.LockStaleAfter < cfg.TickEvery {
		return cfg, fmt.Errorf("QB_LOCK_STALE_AFTER must be >= QB_TICK_EVERY")
	}
	return cfg, nil
}

func LoadAPIFromEnv() (WorkerConfig, error) {
	cfg, err := LoadWorkerFromEnv()
	if err != nil {
		return cfg, err
	}
	if cfg.AdminToken == "" {
		return cfg, fmt.Errorf("QB_ADMIN_TOKEN is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("QBCTL_API_BASE_URL", "http://localhost:8080"), "/"),
		AdminToken: strings.TrimSpace(os.Getenv("QB_ADMIN_TOKEN")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envVolatilityDefault() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("QB_MARKET_VOLATILITY")))
	switch v {
	case "calm", "mor", "wild":
		return v
	default:
		return "mor"
	}
}
