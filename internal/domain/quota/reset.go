package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

type ResetStrategy string

const (
	// ResetZero clears usage in place, preserving rows for audit history.
	ResetZero ResetStrategy = "zero"
	// ResetDelete removes the usage rows outright.
	ResetDelete ResetStrategy = "delete"
)

func ParseResetStrategy(value string) (ResetStrategy, bool) {
	switch ResetStrategy(value) {
	case ResetZero, ResetDelete, "":
		if value == "" {
			return ResetZero, true
		}
		return ResetStrategy(value), true
	default:
		return "", false
	}
}

type ResetOptions struct {
	// PositionID limits the reset to one position. Empty means every
	// position flagged for automatic reset.
	PositionID string
	// Force bypasses the January 1 calendar guard.
	Force    bool
	Strategy ResetStrategy
}

type ResetSummary struct {
	Positions int `json:"positions"`
	Employees int `json:"employees"`
	Rows      int `json:"rows"`
}

// ResetYear clears usage for every employee whose position is in scope.
// Scope resolution and mutation run in one transaction. An empty scope is a
// successful no-op.
func (l *Ledger) ResetYear(ctx context.Context, db querier.DB, opts ResetOptions, now time.Time) (ResetSummary, error) {
	var summary ResetSummary

	if !opts.Force && !resetDue(now) {
		return summary, ErrResetNotDue
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = ResetZero
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Warn("quota reset rollback failed", "err", rbErr)
		}
	}()

	positionIDs, err := resolvePositions(ctx, tx, opts.PositionID)
	if err != nil {
		return summary, err
	}
	summary.Positions = len(positionIDs)
	if len(positionIDs) == 0 {
		return summary, tx.Commit(ctx)
	}

	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE position_id = ANY($1)
  `, positionIDs).Scan(&summary.Employees); err != nil {
		return summary, err
	}
	if summary.Employees == 0 {
		return summary, tx.Commit(ctx)
	}

	var sql string
	switch strategy {
	case ResetDelete:
		sql = `
      DELETE FROM usage_records
      WHERE user_id IN (SELECT id FROM users WHERE position_id = ANY($1))
    `
	default:
		sql = `
      UPDATE usage_records
      SET days_used = 0, hours_used = 0, updated_at = now()
      WHERE user_id IN (SELECT id FROM users WHERE position_id = ANY($1))
    `
	}
	tag, err := tx.Exec(ctx, sql, positionIDs)
	if err != nil {
		return summary, err
	}
	summary.Rows = int(tag.RowsAffected())

	return summary, tx.Commit(ctx)
}

func resolvePositions(ctx context.Context, q querier.Querier, positionID string) ([]string, error) {
	if positionID != "" {
		var id string
		err := q.QueryRow(ctx, "SELECT id FROM positions WHERE id = $1", positionID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}

	rows, err := q.Query(ctx, "SELECT id FROM positions WHERE auto_reset")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// resetDue reports whether now falls on the yearly accounting boundary.
func resetDue(now time.Time) bool {
	return now.Month() == time.January && now.Day() == 1
}
