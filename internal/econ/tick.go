package econ

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunTick executes one full pipeline under the lease lock:
//
//	bot purchases -> employee costs -> asset prices -> loan interest ->
//	net worth -> tick record
//
// Steps run strictly in sequence because later steps read earlier steps'
// writes. Each step is its own transaction; a failing step aborts the rest,
// writes no tick record, and still releases the lock. Lock contention is a
// retryable ErrTickInProgress, never a failure.
func (s *Service) RunTick(ctx context.Context, caller string) (TickSummary, error) {
	start := time.Now()

	ok, err := s.lease.TryAcquire(ctx, caller)
	if err != nil {
		return TickSummary{}, fmt.Errorf("acquire tick lock: %w", err)
	}
	if !ok {
		s.observeTick("aborted", start, TickSummary{Caller: caller})
		return TickSummary{}, ErrTickInProgress
	}
	defer s.releaseLease(ctx)

	summary := TickSummary{Caller: caller, TickID: uuid.NewString()}

	purchases, spent, err := s.runBotPurchases(ctx)
	if err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("bot purchases: %w", err)
	}
	summary.BotPurchases = len(purchases)
	summary.TotalSpentCents = spent

	if err := s.settleEmployeeCosts(ctx); err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("employee costs: %w", err)
	}

	stockUpdates, cryptoUpdates, err := s.updateAssetPrices(ctx)
	if err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("asset prices: %w", err)
	}
	summary.StockUpdates = stockUpdates
	summary.CryptoUpdates = len(cryptoUpdates)

	if err := s.accrueLoanInterest(ctx); err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("loan interest: %w", err)
	}

	if err := s.recomputeNetWorth(ctx); err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("net worth: %w", err)
	}

	tickNumber, tickedAt, err := s.recordTick(ctx, summary.TickID, purchases, cryptoUpdates, spent)
	if err != nil {
		s.observeTick("failed", start, summary)
		return summary, fmt.Errorf("record tick: %w", err)
	}
	summary.TickNumber = tickNumber
	summary.TickedAt = tickedAt

	s.observeTick("completed", start, summary)
	s.publishTick(ctx, summary)
	s.log.Info("tick complete",
		"tick_number", summary.TickNumber,
		"caller", caller,
		"bot_purchases", summary.BotPurchases,
		"stock_updates", summary.StockUpdates,
		"crypto_updates", summary.CryptoUpdates,
		"spent_cents", summary.TotalSpentCents,
		"took", time.Since(start).String(),
	)
	return summary, nil
}

// recordTick appends the immutable summary row. Tick numbers stay monotonic
// without a sequence because record writes are serialized by the lease.
func (s *Service) recordTick(ctx context.Context, tickID string, purchases []BotPurchase, cryptoUpdates []CryptoPriceUpdate, spentCents int64) (int64, time.Time, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, time.Time{}, err
	}
	defer tx.Rollback(ctx)

	var tickNumber int64
	var tickedAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO econ.tick_records (tick_number, tick_id, ticked_at, bot_purchases, crypto_price_updates, total_budget_spent_cents)
		SELECT COALESCE(MAX(tick_number), 0) + 1, $1, now(), $2::jsonb, $3::jsonb, $4
		FROM econ.tick_records
		RETURNING tick_number, ticked_at
	`, tickID, string(marshalPurchases(purchases)), string(marshalCryptoUpdates(cryptoUpdates)), spentCents).Scan(&tickNumber, &tickedAt)
	if err != nil {
		return 0, time.Time{}, err
	}
	return tickNumber, tickedAt, tx.Commit(ctx)
}

func (s *Service) releaseLease(ctx context.Context) {
	// Release must run even when the tick's context is already dead.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.lease.Release(rctx); err != nil {
		s.log.Error("release tick lock", "err", err)
	}
}

func (s *Service) observeTick(outcome string, start time.Time, summary TickSummary) {
	if s.observer != nil {
		s.observer.ObserveTick(outcome, time.Since(start), summary)
	}
}

func (s *Service) publishTick(ctx context.Context, summary TickSummary) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTick(ctx, summary); err != nil {
		s.log.Error("publish tick summary", "tick_number", summary.TickNumber, "err", err)
	}
}
