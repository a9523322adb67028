package quota

import (
	"context"
	"time"

	"leavedesk/internal/platform/querier"
)

// Balance is the read-side view of one (user, leave-type) ledger position.
type Balance struct {
	LeaveTypeID   string   `json:"leaveTypeId"`
	LeaveTypeName string   `json:"leaveTypeName"`
	Unlimited     bool     `json:"unlimited"`
	Entitled      int      `json:"entitledDays"`
	Used          Duration `json:"used"`
	RemainingDays string   `json:"remainingDays"`
}

// Balances lists the current cycle's position for every leave type. Leave
// types with no entitlement for the user's position report zero entitlement;
// unlimited types report no remaining figure.
func (l *Ledger) Balances(ctx context.Context, q querier.Querier, userID string) ([]Balance, error) {
	rows, err := q.Query(ctx, `
    SELECT lt.id, lt.name, lt.unlimited,
           COALESCE(e.days, 0),
           COALESCE(ur.days_used, 0), COALESCE(ur.hours_used, 0)
    FROM leave_types lt
    LEFT JOIN users u ON u.id = $1
    LEFT JOIN entitlements e ON e.leave_type_id = lt.id AND e.position_id = u.position_id
    LEFT JOIN usage_records ur ON ur.leave_type_id = lt.id AND ur.user_id = $1
    ORDER BY lt.name
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.LeaveTypeID, &b.LeaveTypeName, &b.Unlimited, &b.Entitled, &b.Used.Days, &b.Used.Hours); err != nil {
			return nil, err
		}
		if !b.Unlimited {
			quotaUnits := b.Entitled * l.HoursPerDay
			usedUnits := b.Used.Units(l.HoursPerDay)
			b.RemainingDays = remainingDays(quotaUnits, usedUnits, l.HoursPerDay).StringFixed(2)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

type Entitlement struct {
	PositionID  string    `json:"positionId"`
	LeaveTypeID string    `json:"leaveTypeId"`
	Days        int       `json:"days"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ListEntitlements(ctx context.Context, q querier.Querier, positionID string) ([]Entitlement, error) {
	sql := `
    SELECT position_id, leave_type_id, days, updated_at
    FROM entitlements
  `
	args := []any{}
	if positionID != "" {
		sql += " WHERE position_id = $1"
		args = append(args, positionID)
	}
	sql += " ORDER BY position_id, leave_type_id"

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entitlement
	for rows.Next() {
		var e Entitlement
		if err := rows.Scan(&e.PositionID, &e.LeaveTypeID, &e.Days, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertEntitlement is the administrative write path; the ledger itself
// treats entitlements as read-only.
func UpsertEntitlement(ctx context.Context, q querier.Querier, positionID, leaveTypeID string, days int) error {
	_, err := q.Exec(ctx, `
    INSERT INTO entitlements (position_id, leave_type_id, days)
    VALUES ($1,$2,$3)
    ON CONFLICT (position_id, leave_type_id)
    DO UPDATE SET days = EXCLUDED.days, updated_at = now()
  `, positionID, leaveTypeID, days)
	return err
}

// RemainingDaysString formats a remaining figure for messages outside the
// ledger, keeping the two-decimal convention in one place.
func RemainingDaysString(quotaDays int, used Duration, hoursPerDay int) string {
	return remainingDays(quotaDays*hoursPerDay, used.Units(hoursPerDay), hoursPerDay).StringFixed(2)
}
