package econ

import "time"

// TickSummary is the caller-facing result of one completed tick.
type TickSummary struct {
	TickNumber      int64     `json:"tick_number"`
	TickID          string    `json:"tick_id"`
	Caller          string    `json:"caller"`
	TickedAt        time.Time `json:"ticked_at"`
	BotPurchases    int       `json:"bot_purchases"`
	StockUpdates    int       `json:"stock_updates"`
	CryptoUpdates   int       `json:"crypto_updates"`
	TotalSpentCents int64     `json:"total_spent_cents"`
}

// BotPurchase is one executed synthetic marketplace order.
type BotPurchase struct {
	ProductID       int64 `json:"product_id"`
	CompanyID       int64 `json:"company_id"`
	Quantity        int64 `json:"quantity"`
	TotalPriceCents int64 `json:"total_price_cents"`
}

type CryptoPriceUpdate struct {
	CryptoID      int64 `json:"crypto_id"`
	OldPriceCents int64 `json:"old_price_cents"`
	NewPriceCents int64 `json:"new_price_cents"`
}

// TickRecordView mirrors one immutable econ.tick_records row.
type TickRecordView struct {
	TickNumber            int64               `json:"tick_number"`
	TickID                string              `json:"tick_id"`
	TickedAt              time.Time           `json:"ticked_at"`
	BotPurchases          []BotPurchase       `json:"bot_purchases"`
	CryptoPriceUpdates    []CryptoPriceUpdate `json:"crypto_price_updates"`
	TotalBudgetSpentCents int64               `json:"total_budget_spent_cents"`
}

type TaxSweepSummary struct {
	Caller         string `json:"caller"`
	PlayersTaxed   int    `json:"players_taxed"`
	CollectedCents int64  `json:"collected_cents"`
}

type EvasionResult struct {
	Succeeded     bool       `json:"succeeded"`
	ExemptUntil   *time.Time `json:"exempt_until,omitempty"`
	FineCents     int64      `json:"fine_cents,omitempty"`
	NetWorthCents int64      `json:"net_worth_cents"`
}

// ProductLot is the allocator's in-memory view of one eligible product.
// Stock == nil means unlimited supply.
type ProductLot struct {
	ID         int64
	CompanyID  int64
	PriceCents int64
	Stock      *int64
	TotalSold  int64
	Quality    float64
}

// PurchasePlan is one non-zero allocation decided by planPurchases.
type PurchasePlan struct {
	Product    ProductLot
	Quantity   int64
	TotalCents int64
}

// HoldingValue is one priced holding row read by the net worth aggregator.
type HoldingValue struct {
	Units      int64
	PriceCents int64
}

// WealthSnapshot carries every input the net worth computation depends on.
// The computation over a fixed snapshot is deterministic.
type WealthSnapshot struct {
	BalanceCents    int64
	StockHoldings   []HoldingValue
	CryptoHoldings  []HoldingValue
	CompanyBalances []int64
	MarketCapCents  []int64
	LoanBalances    []int64
}
