package econ

import (
	"context"
	"math"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

// scoreProduct rates a product's attractiveness to the bot buyer in [0, 1].
// Quality dominates, a log-normal bell around the sweet-spot price rewards
// moderately priced goods, demand is capped popularity, and the unit-price
// penalty suppresses very expensive per-unit items even when otherwise
// attractive.
func scoreProduct(p ProductLot) float64 {
	priceDollars := CentsToDollars(p.PriceCents)

	z := (math.Log(priceDollars+1) - math.Log(idealPriceDollars)) / priceSpread
	pricePreference := math.Exp(-z * z / 2)

	demand := math.Min(float64(p.TotalSold)/demandSoldCap, 1)

	unitPricePenalty := 1 / (1 + math.Pow(priceDollars/5_000, 1.2))

	return clamp01(0.4*p.Quality+0.3*pricePreference+0.2*demand+0.1) * unitPricePenalty
}

// planPurchases allocates budgetCents across the eligible lots proportionally
// to their normalized scores. Quantities are whole units, clamped by stock,
// the per-order maximum and the remaining budget. The plan may under-spend
// when eligible supply runs out; it never over-spends.
func planPurchases(budgetCents int64, lots []ProductLot, maxPerOrder int64) ([]PurchasePlan, int64) {
	if budgetCents <= 0 || len(lots) == 0 {
		return nil, 0
	}

	eligible := lots[:0:0]
	scores := make([]float64, 0, len(lots))
	var totalScore float64
	for _, lot := range lots {
		if lot.PriceCents <= 0 {
			continue
		}
		if lot.Stock != nil && *lot.Stock <= 0 {
			continue
		}
		score := scoreProduct(lot)
		if score <= 0 {
			continue
		}
		eligible = append(eligible, lot)
		scores = append(scores, score)
		totalScore += score
	}
	if totalScore <= 0 {
		return nil, 0
	}

	var plans []PurchasePlan
	remaining := budgetCents
	for i, lot := range eligible {
		if remaining <= 0 {
			break
		}
		desiredSpend := int64(float64(budgetCents) * (scores[i] / totalScore))
		qty := desiredSpend / lot.PriceCents
		if lot.Stock != nil && qty > *lot.Stock {
			qty = *lot.Stock
		}
		if qty > maxPerOrder {
			qty = maxPerOrder
		}
		if max := remaining / lot.PriceCents; qty > max {
			qty = max
		}
		if qty <= 0 {
			continue
		}
		spend := qty * lot.PriceCents
		plans = append(plans, PurchasePlan{Product: lot, Quantity: qty, TotalCents: spend})
		remaining -= spend
	}
	return plans, budgetCents - remaining
}

// runBotPurchases executes pipeline step 1: score the top revenue-earning
// products, allocate the tick budget, and apply each confirmed purchase.
// The step is one transaction; within it each purchase is all-or-nothing.
func (s *Service) runBotPurchases(ctx context.Context) ([]BotPurchase, int64, error) {
	if s.cfg.BotBudgetCents == 0 {
		return nil, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, company_id, price_cents, stock, total_sold, quality
		FROM econ.products
		WHERE active = true
		  AND archived = false
		  AND price_cents > 0
		  AND price_cents <= $1
		ORDER BY revenue_cents DESC, id
		LIMIT $2
		FOR UPDATE
	`, MaxProductPriceCents, ProductScanLimit)
	if err != nil {
		return nil, 0, err
	}
	var lots []ProductLot
	for rows.Next() {
		var lot ProductLot
		if err := rows.Scan(&lot.ID, &lot.CompanyID, &lot.PriceCents, &lot.Stock, &lot.TotalSold, &lot.Quality); err != nil {
			rows.Close()
			return nil, 0, err
		}
		lots = append(lots, lot)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	plans, totalSpent := planPurchases(s.cfg.BotBudgetCents, lots, MaxUnitsPerOrder)
	if len(plans) == 0 {
		return nil, 0, tx.Commit(ctx)
	}

	purchases := make([]BotPurchase, 0, len(plans))
	for _, plan := range plans {
		if plan.Product.Stock != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE econ.products
				SET stock = stock - $1,
				    total_sold = total_sold + $1,
				    revenue_cents = revenue_cents + $2
				WHERE id = $3
			`, plan.Quantity, plan.TotalCents, plan.Product.ID); err != nil {
				return nil, 0, err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE econ.products
				SET total_sold = total_sold + $1,
				    revenue_cents = revenue_cents + $2
				WHERE id = $3
			`, plan.Quantity, plan.TotalCents, plan.Product.ID); err != nil {
				return nil, 0, err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.companies
			SET balance_cents = balance_cents + $1
			WHERE id = $2
		`, plan.TotalCents, plan.Product.CompanyID); err != nil {
			return nil, 0, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.sales (product_id, company_id, quantity, total_cents, bot)
			VALUES ($1, $2, $3, $4, true)
		`, plan.Product.ID, plan.Product.CompanyID, plan.Quantity, plan.TotalCents); err != nil {
			return nil, 0, err
		}
		if err := appendTransaction(ctx, tx, plan.Product.CompanyID, "", plan.TotalCents, "bot_purchase", map[string]any{
			"product_id": plan.Product.ID,
			"quantity":   plan.Quantity,
		}); err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, BotPurchase{
			ProductID:       plan.Product.ID,
			CompanyID:       plan.Product.CompanyID,
			Quantity:        plan.Quantity,
			TotalPriceCents: plan.TotalCents,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return purchases, totalSpent, nil
}

func marshalPurchases(purchases []BotPurchase) []byte {
	if len(purchases) == 0 {
		return []byte(`[]`)
	}
	raw, _ := json.Marshal(purchases)
	return raw
}
