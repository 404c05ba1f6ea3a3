package econ

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func stock(v int64) *int64 { return &v }

func TestPlanPurchasesSingleProductScenario(t *testing.T) {
	// Budget $100, one product at $20 with stock 10: exactly 5 units,
	// full budget spent.
	lots := []ProductLot{
		{ID: 1, CompanyID: 7, PriceCents: 2_000, Stock: stock(10), Quality: 1.0},
	}
	plans, spent := planPurchases(10_000, lots, MaxUnitsPerOrder)
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	if plans[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", plans[0].Quantity)
	}
	if spent != 10_000 {
		t.Fatalf("spent = %d, want 10000", spent)
	}
}

func TestPlanPurchasesStockClamp(t *testing.T) {
	lots := []ProductLot{
		{ID: 1, CompanyID: 7, PriceCents: 100, Stock: stock(3), Quality: 1.0},
	}
	plans, spent := planPurchases(1_000_000, lots, MaxUnitsPerOrder)
	if len(plans) != 1 || plans[0].Quantity != 3 {
		t.Fatalf("plans = %+v, want single plan of 3 units", plans)
	}
	if spent != 300 {
		t.Fatalf("spent = %d, want 300", spent)
	}
}

func TestPlanPurchasesPerOrderClamp(t *testing.T) {
	lots := []ProductLot{
		{ID: 1, CompanyID: 7, PriceCents: 100, Quality: 1.0}, // unlimited stock
	}
	plans, _ := planPurchases(1_000_000_000, lots, MaxUnitsPerOrder)
	if len(plans) != 1 || plans[0].Quantity != MaxUnitsPerOrder {
		t.Fatalf("plans = %+v, want single plan capped at %d units", plans, MaxUnitsPerOrder)
	}
}

func TestPlanPurchasesNoEligibleSupply(t *testing.T) {
	lots := []ProductLot{
		{ID: 1, PriceCents: 0, Quality: 1.0},
		{ID: 2, PriceCents: 500, Stock: stock(0), Quality: 1.0},
	}
	plans, spent := planPurchases(10_000, lots, MaxUnitsPerOrder)
	if plans != nil || spent != 0 {
		t.Fatalf("expected no purchases, got %+v spent=%d", plans, spent)
	}

	plans, spent = planPurchases(10_000, nil, MaxUnitsPerOrder)
	if plans != nil || spent != 0 {
		t.Fatalf("empty lot set bought %+v spent=%d", plans, spent)
	}
}

func TestPlanPurchasesZeroBudget(t *testing.T) {
	lots := []ProductLot{{ID: 1, PriceCents: 100, Quality: 1.0}}
	plans, spent := planPurchases(0, lots, MaxUnitsPerOrder)
	if plans != nil || spent != 0 {
		t.Fatalf("zero budget bought %+v spent=%d", plans, spent)
	}
}

func TestPlanPurchasesSkipsSubUnitAllocations(t *testing.T) {
	// Two identical lots split the budget; neither share buys one unit.
	lots := []ProductLot{
		{ID: 1, PriceCents: 7_000, Quality: 0.5},
		{ID: 2, PriceCents: 7_000, Quality: 0.5},
	}
	plans, spent := planPurchases(10_000, lots, MaxUnitsPerOrder)
	if plans != nil || spent != 0 {
		t.Fatalf("sub-unit shares bought %+v spent=%d", plans, spent)
	}
}

func TestScoreProductPriceBell(t *testing.T) {
	mid := scoreProduct(ProductLot{PriceCents: 100_000, Quality: 0.5})      // $1000, the sweet spot
	cheap := scoreProduct(ProductLot{PriceCents: 100, Quality: 0.5})        // $1
	pricey := scoreProduct(ProductLot{PriceCents: 4_000_000, Quality: 0.5}) // $40k
	if mid <= cheap {
		t.Fatalf("sweet-spot score %v not above cheap score %v", mid, cheap)
	}
	if mid <= pricey {
		t.Fatalf("sweet-spot score %v not above expensive score %v", mid, pricey)
	}
}

func TestScoreProductDemandCapped(t *testing.T) {
	base := ProductLot{PriceCents: 100_000, Quality: 0.5}
	at100 := base
	at100.TotalSold = 100
	at1M := base
	at1M.TotalSold = 1_000_000
	if scoreProduct(at100) != scoreProduct(at1M) {
		t.Fatalf("demand term not capped: %v vs %v", scoreProduct(at100), scoreProduct(at1M))
	}
}

func genProductLot() gopter.Gen {
	return gopter.CombineGens(
		gen.Int64Range(1, 1_000_000), // price cents
		gen.Int64Range(-1, 10_000),   // stock; -1 means unlimited
		gen.Int64Range(0, 10_000),    // total sold
		gen.Float64Range(0, 1),       // quality
	).Map(func(vals []interface{}) ProductLot {
		lot := ProductLot{
			ID:         1,
			PriceCents: vals[0].(int64),
			TotalSold:  vals[2].(int64),
			Quality:    vals[3].(float64),
		}
		if s := vals[1].(int64); s >= 0 {
			lot.Stock = &s
		}
		return lot
	})
}

func TestPlanPurchasesProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("total spend never exceeds the budget", prop.ForAll(
		func(budget int64, lots []ProductLot) bool {
			_, spent := planPurchases(budget, lots, MaxUnitsPerOrder)
			return spent >= 0 && spent <= budget
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.SliceOfN(20, genProductLot()),
	))

	properties.Property("quantities respect stock and per-order caps", prop.ForAll(
		func(budget int64, lots []ProductLot) bool {
			plans, spent := planPurchases(budget, lots, MaxUnitsPerOrder)
			var total int64
			for _, p := range plans {
				if p.Quantity <= 0 || p.Quantity > MaxUnitsPerOrder {
					return false
				}
				if p.Product.Stock != nil && p.Quantity > *p.Product.Stock {
					return false
				}
				if p.TotalCents != p.Quantity*p.Product.PriceCents {
					return false
				}
				total += p.TotalCents
			}
			return total == spent
		},
		gen.Int64Range(0, 1_000_000_000),
		gen.SliceOfN(20, genProductLot()),
	))

	properties.TestingRun(t)
}
