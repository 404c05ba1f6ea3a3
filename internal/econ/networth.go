package econ

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// computeNetWorth folds a wealth snapshot into a single figure: cash plus
// holdings plus owned-company equity minus outstanding loan balances.
// Deterministic for a fixed snapshot.
func computeNetWorth(snap WealthSnapshot) int64 {
	total := snap.BalanceCents
	for _, h := range snap.StockHoldings {
		total += h.Units * h.PriceCents
	}
	for _, h := range snap.CryptoHoldings {
		total += h.Units * h.PriceCents
	}
	for _, b := range snap.CompanyBalances {
		total += b
	}
	for _, m := range snap.MarketCapCents {
		total += m
	}
	for _, l := range snap.LoanBalances {
		total -= l
	}
	return total
}

// recomputeNetWorth runs pipeline step 5: a rotation batch of players,
// oldest-recomputed first. Every batched player gets a fresh net worth and an
// advanced cursor even when no component changed, which keeps the rotation
// fair.
func (s *Service) recomputeNetWorth(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, balance_cents
		FROM econ.players
		ORDER BY net_worth_updated_at ASC, id
		LIMIT $1
		FOR UPDATE
	`, s.cfg.PlayerBatch)
	if err != nil {
		return err
	}
	type playerRow struct {
		id      string
		balance int64
	}
	var batch []playerRow
	for rows.Next() {
		var p playerRow
		if err := rows.Scan(&p.id, &p.balance); err != nil {
			rows.Close()
			return err
		}
		batch = append(batch, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, player := range batch {
		snap, err := loadWealthSnapshot(ctx, tx, player.id, player.balance)
		if err != nil {
			return err
		}
		netWorth := computeNetWorth(snap)
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET net_worth_cents = $1, net_worth_updated_at = now()
			WHERE id = $2
		`, netWorth, player.id); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// loadWealthSnapshot reads the capped component rows for one player. Each
// scan is bounded so a whale with thousands of rows cannot blow the tick's
// read budget; valuation beyond the caps is deferred, not lost, since the
// caps are generous relative to gameplay limits.
func loadWealthSnapshot(ctx context.Context, tx pgx.Tx, playerID string, balanceCents int64) (WealthSnapshot, error) {
	snap := WealthSnapshot{BalanceCents: balanceCents}

	rows, err := tx.Query(ctx, `
		SELECT h.shares, st.price_cents
		FROM econ.stock_holdings h
		JOIN econ.stocks st ON st.id = h.stock_id
		WHERE h.player_id = $1
		ORDER BY h.stock_id
		LIMIT $2
	`, playerID, HoldingScanLimit)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var h HoldingValue
		if err := rows.Scan(&h.Units, &h.PriceCents); err != nil {
			rows.Close()
			return snap, err
		}
		snap.StockHoldings = append(snap.StockHoldings, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = tx.Query(ctx, `
		SELECT h.units, c.price_cents
		FROM econ.crypto_holdings h
		JOIN econ.cryptos c ON c.id = h.crypto_id
		WHERE h.player_id = $1
		ORDER BY h.crypto_id
		LIMIT $2
	`, playerID, HoldingScanLimit)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var h HoldingValue
		if err := rows.Scan(&h.Units, &h.PriceCents); err != nil {
			rows.Close()
			return snap, err
		}
		snap.CryptoHoldings = append(snap.CryptoHoldings, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	// Owned companies contribute their cash, and when publicly traded also
	// their market capitalization (outstanding shares priced at current).
	rows, err = tx.Query(ctx, `
		SELECT c.balance_cents,
		       COALESCE((
		           SELECT st.price_cents * (SELECT COALESCE(SUM(h.shares), 0) FROM econ.stock_holdings h WHERE h.stock_id = st.id)
		           FROM econ.stocks st
		           WHERE st.company_id = c.id AND st.listed = true
		           LIMIT 1
		       ), 0)
		FROM econ.companies c
		WHERE c.owner_player_id = $1
		ORDER BY c.id
		LIMIT $2
	`, playerID, CompanyScanLimit)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var balance, marketCap int64
		if err := rows.Scan(&balance, &marketCap); err != nil {
			rows.Close()
			return snap, err
		}
		snap.CompanyBalances = append(snap.CompanyBalances, balance)
		if marketCap > 0 {
			snap.MarketCapCents = append(snap.MarketCapCents, marketCap)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = tx.Query(ctx, `
		SELECT remaining_cents
		FROM econ.loans
		WHERE borrower_player_id = $1 AND status = 'active'
		ORDER BY id
		LIMIT $2
	`, playerID, LoanScanLimit)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var remaining int64
		if err := rows.Scan(&remaining); err != nil {
			rows.Close()
			return snap, err
		}
		snap.LoanBalances = append(snap.LoanBalances, remaining)
	}
	rows.Close()
	return snap, rows.Err()
}
