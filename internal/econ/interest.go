package econ

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// interestInterval is the wall-clock length of one accrual interval.
func interestInterval(intervalsPerDay int) time.Duration {
	return 24 * time.Hour / time.Duration(intervalsPerDay)
}

// accrueLoanInterest runs pipeline step 4: compound interest on a rotation
// batch of active loans ordered by creation time. Loans not yet due for a
// full interval are left untouched, so no partial-interval compounding
// occurs. The borrower is debited the same amount the loan grows by; their
// balance may go negative, which models debt.
func (s *Service) accrueLoanInterest(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	interval := interestInterval(s.cfg.InterestIntervalsPerDay)

	rows, err := tx.Query(ctx, `
		SELECT id, borrower_player_id, remaining_cents, daily_rate_pct
		FROM econ.loans
		WHERE status = 'active'
		  AND last_interest_at <= now() - $1::interval
		ORDER BY created_at ASC, id
		LIMIT $2
		FOR UPDATE
	`, interval, s.cfg.LoanBatch)
	if err != nil {
		return err
	}
	type loanRow struct {
		id        int64
		borrower  string
		remaining int64
		rate      float64
	}
	var due []loanRow
	for rows.Next() {
		var l loanRow
		if err := rows.Scan(&l.id, &l.borrower, &l.remaining, &l.rate); err != nil {
			rows.Close()
			return err
		}
		due = append(due, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, loan := range due {
		interest := interestForInterval(loan.remaining, loan.rate, s.cfg.InterestIntervalsPerDay)
		if interest <= 0 {
			// Still stamp the loan so a zero-interest loan does not get
			// rescanned every tick.
			if _, err := tx.Exec(ctx, `
				UPDATE econ.loans
				SET last_interest_at = now()
				WHERE id = $1
			`, loan.id); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.loans
			SET remaining_cents = remaining_cents + $1,
			    accrued_interest_cents = accrued_interest_cents + $1,
			    last_interest_at = now()
			WHERE id = $2
		`, interest, loan.id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET balance_cents = balance_cents - $1
			WHERE id = $2
		`, interest, loan.borrower); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, 0, loan.borrower, -interest, "loan_interest", map[string]any{
			"loan_id": loan.id,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
