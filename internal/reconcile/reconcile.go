// Package reconcile brings the invocation history back to a consistent state at startup.
package reconcile

import (
	"context"
	"database/sql"
	"time"

	"github.com/metalagman/openainodes/internal/run"
	"github.com/rs/zerolog/log"
)

// DefaultStaleAfter is how long an invocation may stay running before it is
// considered abandoned by a crashed process.
const DefaultStaleAfter = time.Hour

// Result summarizes a reconciliation.
type Result struct {
	Interrupted int
	Pruned      run.PruneResult
}

// Run fails invocations left running for longer than staleAfter, then applies policy.
func Run(ctx context.Context, db *sql.DB, staleAfter time.Duration, policy run.RetentionPolicy) (Result, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	var res Result
	n, err := run.NewStore(db).Interrupt(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return res, err
	}
	res.Interrupted = n
	if n > 0 {
		log.Warn().Int("count", n).Msg("marked abandoned invocations as failed")
	}

	res.Pruned, err = run.Prune(ctx, db, policy, false)
	if err != nil {
		return res, err
	}
	return res, nil
}
