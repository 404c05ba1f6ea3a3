package econ

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// employeeCost computes floor(tickIncome * totalBps / 10000). Zero when the
// company earned nothing or employs nobody.
func employeeCost(tickIncomeCents, totalCostBps int64) int64 {
	if tickIncomeCents <= 0 || totalCostBps <= 0 {
		return 0
	}
	return tickIncomeCents * totalCostBps / bpsDenominator
}

// settleEmployeeCosts runs pipeline step 2: a rotation batch of companies,
// oldest-updated first, each debited its staff overhead against recent sale
// income. Every batched company gets its cursor advanced even when nothing is
// debited, so no company starves the rotation.
func (s *Service) settleEmployeeCosts(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, balance_cents
		FROM econ.companies
		ORDER BY updated_at ASC, id
		LIMIT $1
		FOR UPDATE
	`, s.cfg.CompanyBatch)
	if err != nil {
		return err
	}
	type companyRow struct {
		id      int64
		balance int64
	}
	var batch []companyRow
	for rows.Next() {
		var c companyRow
		if err := rows.Scan(&c.id, &c.balance); err != nil {
			rows.Close()
			return err
		}
		batch = append(batch, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, company := range batch {
		var totalBps int64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(cost_bps), 0)
			FROM (
				SELECT cost_bps
				FROM econ.company_employees
				WHERE company_id = $1
				ORDER BY id
				LIMIT $2
			) staff
		`, company.id, EmployeeScanLimit).Scan(&totalBps); err != nil {
			return err
		}

		var income int64
		if totalBps > 0 {
			// Income window: the capped most-recent sales inside one
			// rotation interval.
			if err := tx.QueryRow(ctx, `
				SELECT COALESCE(SUM(total_cents), 0)
				FROM (
					SELECT total_cents
					FROM econ.sales
					WHERE company_id = $1
					  AND created_at > now() - $2::interval
					ORDER BY created_at DESC
					LIMIT $3
				) recent
			`, company.id, s.cfg.TickEvery, SalesWindowLimit).Scan(&income); err != nil {
				return err
			}
		}

		cost := employeeCost(income, totalBps)
		if cost > 0 && cost <= company.balance {
			if _, err := tx.Exec(ctx, `
				UPDATE econ.companies
				SET balance_cents = balance_cents - $1, updated_at = now()
				WHERE id = $2
			`, cost, company.id); err != nil {
				return err
			}
			// Pure overhead: the debit has no counterparty credit.
			if err := appendTransaction(ctx, tx, company.id, "", -cost, "employee_cost", map[string]any{
				"tick_income_cents": income,
				"total_cost_bps":    totalBps,
			}); err != nil {
				return err
			}
			continue
		}

		// Touch the cursor so the rotation advances past idle companies.
		if _, err := tx.Exec(ctx, `
			UPDATE econ.companies
			SET updated_at = now()
			WHERE id = $1
		`, company.id); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
