package quota

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"leavedesk/internal/platform/querier"
)

const DefaultHoursPerDay = 8

// Ledger maintains per (user, leave-type) usage against position
// entitlements. It holds no connection of its own: every operation takes an
// explicit Querier, and the mutating ones expect it to be a transaction so
// the FOR UPDATE locks below span the whole read-check-write sequence.
type Ledger struct {
	HoursPerDay int
}

func NewLedger(hoursPerDay int) *Ledger {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	return &Ledger{HoursPerDay: hoursPerDay}
}

type usage struct {
	Days  int
	Hours int
}

// Check decides whether a normalized request fits the remaining quota.
// Leave types flagged unlimited bypass the check entirely. The entitlement
// and usage rows are read under row locks; two concurrent approvals for the
// same user and leave type serialize on the usage row.
func (l *Ledger) Check(ctx context.Context, q querier.Querier, userID, positionID, leaveTypeID string, d Duration) error {
	var unlimited bool
	if err := q.QueryRow(ctx, "SELECT unlimited FROM leave_types WHERE id = $1", leaveTypeID).Scan(&unlimited); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if unlimited {
		return nil
	}

	// A user without a position cannot have an entitlement row.
	if positionID == "" {
		return ErrNoEntitlement
	}

	var entitlementDays int
	err := q.QueryRow(ctx, `
    SELECT days
    FROM entitlements
    WHERE position_id = $1 AND leave_type_id = $2
    FOR UPDATE
  `, positionID, leaveTypeID).Scan(&entitlementDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoEntitlement
	}
	if err != nil {
		return err
	}

	used, err := l.lockUsage(ctx, q, userID, leaveTypeID)
	if err != nil {
		return err
	}

	if admitted, remaining := admit(used, d, entitlementDays, l.HoursPerDay); !admitted {
		return &ExceededError{RemainingDays: remaining}
	}
	return nil
}

// admit compares everything in hours: a request is admitted iff consumed
// plus requested stays within the entitlement.
func admit(used usage, d Duration, entitlementDays, hoursPerDay int) (bool, decimal.Decimal) {
	usedUnits := used.Days*hoursPerDay + used.Hours
	quotaUnits := entitlementDays * hoursPerDay
	if usedUnits+d.Units(hoursPerDay) > quotaUnits {
		return false, remainingDays(quotaUnits, usedUnits, hoursPerDay)
	}
	return true, decimal.Decimal{}
}

// Consume applies an approved request's duration onto the usage record. It
// must run in the same transaction as the status transition to approved, and
// callers guarantee the transition fires at most once per request.
func (l *Ledger) Consume(ctx context.Context, q querier.Querier, userID, leaveTypeID string, d Duration) error {
	used, err := l.lockUsage(ctx, q, userID, leaveTypeID)
	if err != nil {
		return err
	}
	next := fromUnits(used.Days*l.HoursPerDay+used.Hours+d.Units(l.HoursPerDay), l.HoursPerDay)
	return l.writeUsage(ctx, q, userID, leaveTypeID, next)
}

// Revert subtracts a previously consumed duration, recomputed by the caller
// with the same Normalize call that fed Consume. Usage never goes negative;
// a missing usage record is a no-op.
func (l *Ledger) Revert(ctx context.Context, q querier.Querier, userID, leaveTypeID string, d Duration) error {
	var used usage
	err := q.QueryRow(ctx, `
    SELECT days_used, hours_used
    FROM usage_records
    WHERE user_id = $1 AND leave_type_id = $2
    FOR UPDATE
  `, userID, leaveTypeID).Scan(&used.Days, &used.Hours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	next := fromUnits(used.Days*l.HoursPerDay+used.Hours-d.Units(l.HoursPerDay), l.HoursPerDay)
	return l.writeUsage(ctx, q, userID, leaveTypeID, next)
}

// lockUsage creates the usage row if absent, then locks and reads it. The
// insert makes the lock target exist so concurrent first consumptions still
// serialize.
func (l *Ledger) lockUsage(ctx context.Context, q querier.Querier, userID, leaveTypeID string) (usage, error) {
	var used usage
	if _, err := q.Exec(ctx, `
    INSERT INTO usage_records (user_id, leave_type_id, days_used, hours_used)
    VALUES ($1,$2,0,0)
    ON CONFLICT (user_id, leave_type_id) DO NOTHING
  `, userID, leaveTypeID); err != nil {
		return used, err
	}
	err := q.QueryRow(ctx, `
    SELECT days_used, hours_used
    FROM usage_records
    WHERE user_id = $1 AND leave_type_id = $2
    FOR UPDATE
  `, userID, leaveTypeID).Scan(&used.Days, &used.Hours)
	return used, err
}

func (l *Ledger) writeUsage(ctx context.Context, q querier.Querier, userID, leaveTypeID string, next Duration) error {
	_, err := q.Exec(ctx, `
    UPDATE usage_records
    SET days_used = $1, hours_used = $2, updated_at = now()
    WHERE user_id = $3 AND leave_type_id = $4
  `, next.Days, next.Hours, userID, leaveTypeID)
	return err
}

func remainingDays(quotaUnits, usedUnits, hoursPerDay int) decimal.Decimal {
	remaining := quotaUnits - usedUnits
	if remaining < 0 {
		remaining = 0
	}
	return decimal.NewFromInt(int64(remaining)).
		Div(decimal.NewFromInt(int64(hoursPerDay))).
		Round(2)
}
