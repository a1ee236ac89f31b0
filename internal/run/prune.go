package run

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RetentionPolicy controls invocation cleanup.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// Enabled reports whether the policy would keep less than everything.
func (p RetentionPolicy) Enabled() bool {
	return p.KeepLast > 0 || p.KeepDays > 0
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
}

// Prune deletes old invocation records. Running invocations are always kept;
// an invocation survives when either rule keeps it.
func Prune(ctx context.Context, db *sql.DB, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	if !policy.Enabled() {
		return PruneResult{}, nil
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}
	rows, err := db.QueryContext(ctx, `SELECT invocation_id, started_at, status FROM invocations ORDER BY started_at DESC`)
	if err != nil {
		return PruneResult{}, fmt.Errorf("list invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type invRow struct {
		id        string
		startedAt time.Time
		status    string
		parseErr  error
	}
	var invs []invRow
	for rows.Next() {
		var id, startedAt, status string
		if err := rows.Scan(&id, &startedAt, &status); err != nil {
			return PruneResult{}, fmt.Errorf("scan invocation: %w", err)
		}
		parsed, parseErr := time.Parse(timeLayout, startedAt)
		invs = append(invs, invRow{id: id, startedAt: parsed, status: status, parseErr: parseErr})
	}
	if err := rows.Err(); err != nil {
		return PruneResult{}, fmt.Errorf("iterate invocations: %w", err)
	}
	_ = rows.Close()

	res := PruneResult{Considered: len(invs)}
	for idx, row := range invs {
		keep := row.status == StatusRunning
		if !keep && policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 {
			keep = row.parseErr != nil || row.startedAt.After(cutoff)
		}
		if keep {
			res.Kept++
			continue
		}
		if !dryRun {
			if _, err := db.ExecContext(ctx, `DELETE FROM invocations WHERE invocation_id=?`, row.id); err != nil {
				return res, fmt.Errorf("delete invocation %s: %w", row.id, err)
			}
		}
		res.Deleted++
	}
	return res, nil
}
