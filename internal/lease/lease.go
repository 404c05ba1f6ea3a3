// Package lease provides the singleton mutual-exclusion record that
// serializes tick executions. At most one holder owns the lease at a time;
// a holder that disappears without releasing is forcibly displaced once the
// staleness threshold passes.
package lease

import "context"

// Lease is the narrow contract the tick coordinator depends on.
//
// TryAcquire returns (false, nil) when another holder owns a non-stale
// lease. That outcome is not an error: it means another tick is in progress
// and the caller should abort with a busy signal rather than retry.
//
// Release unconditionally clears the held flag. It is safe to call from a
// deferred path even after a mid-pipeline failure.
type Lease interface {
	TryAcquire(ctx context.Context, holder string) (bool, error)
	Release(ctx context.Context) error
}
