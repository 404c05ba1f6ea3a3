package econ

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// RunTaxSweep is the sibling scheduled job to RunTick: it applies the tiered
// daily wealth tax to a rotation batch of eligible players, oldest-taxed
// first, under the same lease so its writes never interleave with a tick.
func (s *Service) RunTaxSweep(ctx context.Context, caller string) (TaxSweepSummary, error) {
	summary := TaxSweepSummary{Caller: caller}

	ok, err := s.lease.TryAcquire(ctx, caller+":tax")
	if err != nil {
		return summary, fmt.Errorf("acquire tick lock: %w", err)
	}
	if !ok {
		return summary, ErrTickInProgress
	}
	defer s.releaseLease(ctx)

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return summary, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, balance_cents, net_worth_cents
		FROM econ.players
		WHERE role = 'player'
		  AND (tax_exempt_until IS NULL OR tax_exempt_until < now())
		  AND (last_taxed_at IS NULL OR last_taxed_at < now() - $1::interval)
		ORDER BY last_taxed_at ASC NULLS FIRST, id
		LIMIT $2
		FOR UPDATE
	`, TaxCooldown, s.cfg.TaxBatch)
	if err != nil {
		return summary, err
	}
	type playerRow struct {
		id       string
		balance  int64
		netWorth int64
	}
	var batch []playerRow
	for rows.Next() {
		var p playerRow
		if err := rows.Scan(&p.id, &p.balance, &p.netWorth); err != nil {
			rows.Close()
			return summary, err
		}
		batch = append(batch, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return summary, err
	}

	for _, player := range batch {
		levy := TaxForNetWorth(player.netWorth)
		// The levy never drives a balance below zero.
		if levy > player.balance {
			levy = player.balance
		}
		if levy < 0 {
			levy = 0
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET balance_cents = balance_cents - $1, last_taxed_at = now()
			WHERE id = $2
		`, levy, player.id); err != nil {
			return summary, err
		}
		if levy == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.tax_entries (player_id, net_worth_cents, rate_bps, amount_cents, kind)
			VALUES ($1, $2, $3, $4, 'levy')
		`, player.id, player.netWorth, TaxRateBps(player.netWorth), levy); err != nil {
			return summary, err
		}
		if err := appendTransaction(ctx, tx, 0, player.id, -levy, "wealth_tax", nil); err != nil {
			return summary, err
		}
		summary.PlayersTaxed++
		summary.CollectedCents += levy
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, err
	}
	if s.observer != nil {
		s.observer.ObserveTaxSweep(summary)
	}
	s.log.Info("tax sweep complete",
		"caller", caller,
		"players_taxed", summary.PlayersTaxed,
		"collected_cents", summary.CollectedCents,
	)
	return summary, nil
}

// AttemptTaxEvasion rolls a fixed-probability evasion attempt for a player:
// success grants a time-boxed exemption, failure levies a heavy one-time fine
// proportional to net worth. The fine is a tax debit and may push the balance
// negative.
func (s *Service) AttemptTaxEvasion(ctx context.Context, playerID string) (EvasionResult, error) {
	var out EvasionResult
	succeeded := s.nextFloat() < EvasionSuccessRate

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	var netWorth int64
	err = tx.QueryRow(ctx, `
		SELECT net_worth_cents
		FROM econ.players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&netWorth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, ErrPlayerNotFound
		}
		return out, err
	}
	out.NetWorthCents = netWorth

	if succeeded {
		until := time.Now().Add(EvasionExemptFor)
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET tax_exempt_until = now() + $1::interval
			WHERE id = $2
		`, EvasionExemptFor, playerID); err != nil {
			return out, err
		}
		out.Succeeded = true
		out.ExemptUntil = &until
		return out, tx.Commit(ctx)
	}

	fine := int64(0)
	if netWorth > 0 {
		fine = netWorth * EvasionFineBps / bpsDenominator
	}
	if fine > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET balance_cents = balance_cents - $1
			WHERE id = $2
		`, fine, playerID); err != nil {
			return out, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.tax_entries (player_id, net_worth_cents, rate_bps, amount_cents, kind)
			VALUES ($1, $2, $3, $4, 'fine')
		`, playerID, netWorth, EvasionFineBps, fine); err != nil {
			return out, err
		}
		if err := appendTransaction(ctx, tx, 0, playerID, -fine, "tax_evasion_fine", nil); err != nil {
			return out, err
		}
	}
	out.FineCents = fine
	return out, tx.Commit(ctx)
}
