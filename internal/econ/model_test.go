package econ

import "testing"

func TestTaxTiersStrictlyIncreasing(t *testing.T) {
	for i := 1; i < len(taxTiers); i++ {
		if taxTiers[i].RateBps <= taxTiers[i-1].RateBps {
			t.Fatalf("tier %d rate %d not above tier %d rate %d", i, taxTiers[i].RateBps, i-1, taxTiers[i-1].RateBps)
		}
		if taxTiers[i].UpToCents <= taxTiers[i-1].UpToCents {
			t.Fatalf("tier %d threshold %d not above tier %d threshold %d", i, taxTiers[i].UpToCents, i-1, taxTiers[i-1].UpToCents)
		}
	}
	if got := taxTiers[0].RateBps; got != 50 {
		t.Fatalf("lowest tier = %d bps, want 50", got)
	}
	if got := taxTiers[len(taxTiers)-1].RateBps; got != 5_000 {
		t.Fatalf("highest tier = %d bps, want 5000", got)
	}
}

func TestTaxForNetWorth(t *testing.T) {
	tests := []struct {
		netWorth int64
		want     int64
	}{
		{netWorth: 5_000_000, want: 100_000},           // 2% tier
		{netWorth: 50_000, want: 250},                  // 0.5% tier
		{netWorth: 2_000_000_000, want: 1_000_000_000}, // 50% tier
		{netWorth: 0, want: 0},
		{netWorth: -75_000, want: 0},
	}
	for _, tc := range tests {
		if got := TaxForNetWorth(tc.netWorth); got != tc.want {
			t.Fatalf("TaxForNetWorth(%d) = %d, want %d", tc.netWorth, got, tc.want)
		}
	}
}

func TestInterestForInterval(t *testing.T) {
	// 5%/day over 72 intervals: floor(1_000_000 * (0.05/72)) = 694.
	if got := interestForInterval(1_000_000, 5, 72); got != 694 {
		t.Fatalf("interest = %d, want 694", got)
	}
	if got := interestForInterval(0, 5, 72); got != 0 {
		t.Fatalf("zero balance accrued %d", got)
	}
	if got := interestForInterval(1_000_000, 0, 72); got != 0 {
		t.Fatalf("zero rate accrued %d", got)
	}
	if got := interestForInterval(-500, 5, 72); got != 0 {
		t.Fatalf("negative balance accrued %d", got)
	}
}

func TestInterestGrowthMonotonic(t *testing.T) {
	remaining := int64(1_000_000)
	for i := 0; i < 500; i++ {
		interest := interestForInterval(remaining, 5, 72)
		if interest < 0 {
			t.Fatalf("interval %d produced negative interest %d", i, interest)
		}
		next := remaining + interest
		if next < remaining {
			t.Fatalf("interval %d shrank remaining: %d -> %d", i, remaining, next)
		}
		remaining = next
	}
}

func TestEmployeeCost(t *testing.T) {
	// 3.5% of 10_000 cents income = 350.
	if got := employeeCost(10_000, 350); got != 350 {
		t.Fatalf("cost = %d, want 350", got)
	}
	// Floor division: 0.5% of 199 = 0 (floor of 0.995).
	if got := employeeCost(199, 50); got != 0 {
		t.Fatalf("cost = %d, want 0", got)
	}
	if got := employeeCost(0, 500); got != 0 {
		t.Fatalf("idle company owed %d", got)
	}
	if got := employeeCost(10_000, 0); got != 0 {
		t.Fatalf("staffless company owed %d", got)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {7.3, 1},
	}
	for _, tc := range tests {
		if got := clamp01(tc.in); got != tc.want {
			t.Fatalf("clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEvolvePriceBounds(t *testing.T) {
	if got := evolvePrice(0, 0.5, 2.0); got != minAssetPriceCents {
		t.Fatalf("zero price evolved to %d", got)
	}
	// A catastrophic return is clamped to the max per-tick drop.
	clamped := evolvePrice(100_000, -50, 2.0)
	unclamped := evolvePrice(100_000, -2.0, 2.0)
	if clamped != unclamped {
		t.Fatalf("drop not clamped: %d vs %d", clamped, unclamped)
	}
	if got := evolvePrice(1, -2.0, 2.0); got < minAssetPriceCents {
		t.Fatalf("price fell below floor: %d", got)
	}
}

func TestEvolvePriceCeilingClamp(t *testing.T) {
	if got := evolvePrice(maxAssetPriceCents, 1.0, 2.0); got != maxAssetPriceCents {
		t.Fatalf("price at ceiling evolved to %d, want %d", got, maxAssetPriceCents)
	}
	// A price near the int64 limit with a positive return must clamp to the
	// ceiling, not wrap negative and collapse to the floor.
	huge := int64(9_000_000_000_000_000_000)
	if got := evolvePrice(huge, 0.7, 2.0); got != maxAssetPriceCents {
		t.Fatalf("huge price with positive return evolved to %d, want %d", got, maxAssetPriceCents)
	}
}
