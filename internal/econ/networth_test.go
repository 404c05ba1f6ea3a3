package econ

import "testing"

func TestComputeNetWorth(t *testing.T) {
	snap := WealthSnapshot{
		BalanceCents: 1_000_000,
		StockHoldings: []HoldingValue{
			{Units: 10, PriceCents: 13_000},
			{Units: 4, PriceCents: 9_500},
		},
		CryptoHoldings: []HoldingValue{
			{Units: 2, PriceCents: 420_000},
		},
		CompanyBalances: []int64{500_000},
		MarketCapCents:  []int64{2_000_000},
		LoanBalances:    []int64{750_000, 25_000},
	}
	// 1_000_000 + 130_000 + 38_000 + 840_000 + 500_000 + 2_000_000 - 775_000
	want := int64(3_733_000)
	if got := computeNetWorth(snap); got != want {
		t.Fatalf("net worth = %d, want %d", got, want)
	}
}

func TestComputeNetWorthDeterministic(t *testing.T) {
	snap := WealthSnapshot{
		BalanceCents:   42_000,
		StockHoldings:  []HoldingValue{{Units: 3, PriceCents: 11_500}},
		CryptoHoldings: []HoldingValue{{Units: 100, PriceCents: 30}},
		LoanBalances:   []int64{60_000},
	}
	first := computeNetWorth(snap)
	for i := 0; i < 10; i++ {
		if got := computeNetWorth(snap); got != first {
			t.Fatalf("recomputation %d diverged: %d != %d", i, got, first)
		}
	}
}

func TestComputeNetWorthCanGoNegative(t *testing.T) {
	snap := WealthSnapshot{
		BalanceCents: 10_000,
		LoanBalances: []int64{500_000},
	}
	if got := computeNetWorth(snap); got != -490_000 {
		t.Fatalf("net worth = %d, want -490000", got)
	}
}

func TestComputeNetWorthEmptySnapshot(t *testing.T) {
	if got := computeNetWorth(WealthSnapshot{}); got != 0 {
		t.Fatalf("empty snapshot worth %d", got)
	}
}
