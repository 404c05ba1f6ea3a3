package lease

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLease keeps the lease in a singleton row (id = 1) of econ.tick_lock.
// Acquisition is a single atomic upsert so two concurrent callers can never
// both win: the conditional UPDATE touches zero rows for the loser.
type PGLease struct {
	db         *pgxpool.Pool
	log        *slog.Logger
	staleAfter time.Duration
}

func NewPGLease(db *pgxpool.Pool, staleAfter time.Duration, logger *slog.Logger) *PGLease {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGLease{db: db, log: logger, staleAfter: staleAfter}
}

func (l *PGLease) TryAcquire(ctx context.Context, holder string) (bool, error) {
	var prevHolder string
	var prevAcquired time.Time
	err := l.db.QueryRow(ctx, `
		INSERT INTO econ.tick_lock AS tl (id, holder, acquired_at, held)
		VALUES (1, $1, now(), true)
		ON CONFLICT (id) DO UPDATE
		SET holder = $1, acquired_at = now(), held = true
		WHERE tl.held = false
		   OR tl.acquired_at < now() - $2::interval
		RETURNING
		    (SELECT COALESCE(t.holder, '') FROM econ.tick_lock t WHERE t.id = 1),
		    (SELECT COALESCE(t.acquired_at, now()) FROM econ.tick_lock t WHERE t.id = 1)
	`, holder, l.staleAfter).Scan(&prevHolder, &prevAcquired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conditional update matched nothing: held and not stale.
			return false, nil
		}
		return false, err
	}
	if age := time.Since(prevAcquired); age > l.staleAfter && prevHolder != holder {
		l.log.Info("stale tick lock reclaimed", "previous_holder", prevHolder, "age", age.String(), "holder", holder)
	}
	return true, nil
}

func (l *PGLease) Release(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		UPDATE econ.tick_lock
		SET held = false
		WHERE id = 1
	`)
	return err
}
