package econ

import (
	"errors"
	"math"
	"time"
)

const (
	CentsPerDollar = int64(100)

	// Bot purchase allocator.
	DefaultBotBudgetCents = int64(50_000_000)           // $500,000 per tick
	MaxProductPriceCents  = int64(5_000_000)            // $50,000/unit ceiling
	MaxUnitsPerOrder      = int64(1_000)
	ProductScanLimit      = 100
	idealPriceDollars     = 1_000.0
	priceSpread           = 1.5
	demandSoldCap         = 100.0

	// Per-invocation read caps for the rotation engines. Deliberately small:
	// a tick trades completeness for a bounded read budget, and the
	// oldest-first ordering guarantees coverage over successive ticks.
	SalesWindowLimit  = 100
	EmployeeScanLimit = 100
	HoldingScanLimit  = 100
	CompanyScanLimit  = 25
	LoanScanLimit     = 25
	StockScanLimit    = 200
	CryptoScanLimit   = 200

	TaxCooldown        = 24 * time.Hour
	EvasionSuccessRate = 0.30
	EvasionExemptFor   = 6 * time.Hour
	EvasionFineBps     = int64(1_000) // 10% of net worth
	bpsDenominator     = int64(10_000)
	minAssetPriceCents = int64(1)
	maxAssetPriceCents = int64(1_000_000_000_000) // $10B per unit
)

var (
	ErrTickInProgress = errors.New("another tick is in progress")
	ErrPlayerNotFound = errors.New("player not found")
	ErrTickNotFound   = errors.New("tick record not found")
)

// taxTier applies to net worths strictly below UpToCents. The table is
// strictly increasing in rate; the last tier is open-ended.
type taxTier struct {
	UpToCents int64
	RateBps   int64
}

var taxTiers = []taxTier{
	{UpToCents: 100_000, RateBps: 50},          // < $1k: 0.5%/day
	{UpToCents: 1_000_000, RateBps: 100},       // < $10k: 1%
	{UpToCents: 10_000_000, RateBps: 200},      // < $100k: 2%
	{UpToCents: 100_000_000, RateBps: 500},     // < $1M: 5%
	{UpToCents: 1_000_000_000, RateBps: 1_500}, // < $10M: 15%
	{UpToCents: math.MaxInt64, RateBps: 5_000}, // rest: 50%
}

// TaxRateBps returns the daily wealth-tax rate for a net worth.
func TaxRateBps(netWorthCents int64) int64 {
	for _, tier := range taxTiers {
		if netWorthCents < tier.UpToCents {
			return tier.RateBps
		}
	}
	return taxTiers[len(taxTiers)-1].RateBps
}

// TaxForNetWorth computes floor(netWorth * tierRate) in cents. Non-positive
// net worths owe nothing.
func TaxForNetWorth(netWorthCents int64) int64 {
	if netWorthCents <= 0 {
		return 0
	}
	return netWorthCents * TaxRateBps(netWorthCents) / bpsDenominator
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// interestForInterval computes floor(remaining * (dailyRate/100) /
// intervalsPerDay). Integer cents in, integer cents out; the floor keeps
// repeated compounding drift-free.
func interestForInterval(remainingCents int64, dailyRatePct float64, intervalsPerDay int) int64 {
	if remainingCents <= 0 || dailyRatePct <= 0 || intervalsPerDay <= 0 {
		return 0
	}
	intervalRate := (dailyRatePct / 100) / float64(intervalsPerDay)
	return int64(float64(remainingCents) * intervalRate)
}

func CentsToDollars(v int64) float64 {
	return float64(v) / float64(CentsPerDollar)
}
