package econ

import "testing"

func TestWithDefaultsHonorsZeroBudget(t *testing.T) {
	cfg := Config{BotBudgetCents: 0}.withDefaults()
	if cfg.BotBudgetCents != 0 {
		t.Fatalf("zero budget became %d", cfg.BotBudgetCents)
	}

	cfg = Config{BotBudgetCents: -1}.withDefaults()
	if cfg.BotBudgetCents != DefaultBotBudgetCents {
		t.Fatalf("unset budget = %d, want %d", cfg.BotBudgetCents, DefaultBotBudgetCents)
	}
}

func TestWithDefaultsFillsBatchSizes(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.CompanyBatch <= 0 || cfg.LoanBatch <= 0 || cfg.PlayerBatch <= 0 || cfg.TaxBatch <= 0 {
		t.Fatalf("batch sizes not defaulted: %+v", cfg)
	}
	if cfg.InterestIntervalsPerDay != 72 {
		t.Fatalf("intervals per day = %d, want 72", cfg.InterestIntervalsPerDay)
	}
	if cfg.MarketVolatility != "mor" {
		t.Fatalf("volatility = %q, want mor", cfg.MarketVolatility)
	}
}
