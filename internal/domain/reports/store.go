package reports

import (
	"context"
	"time"

	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// UsageRow is one line of the leave usage report: one active user crossed
// with one leave type that has usage or an entitlement.
type UsageRow struct {
	UserName      string `json:"userName"`
	Email         string `json:"email"`
	Department    string `json:"department"`
	Position      string `json:"position"`
	LeaveTypeName string `json:"leaveTypeName"`
	Unlimited     bool   `json:"unlimited"`
	EntitledDays  int    `json:"entitledDays"`
	DaysUsed      int    `json:"daysUsed"`
	HoursUsed     int    `json:"hoursUsed"`
}

func (s *Store) LeaveUsage(ctx context.Context, departmentID string) ([]UsageRow, error) {
	query := `
    SELECT u.name, u.email,
           COALESCE(d.name,''), COALESCE(p.name,''),
           lt.name, lt.unlimited,
           COALESCE(e.days, 0),
           COALESCE(ur.days_used, 0), COALESCE(ur.hours_used, 0)
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    LEFT JOIN positions p ON p.id = u.position_id
    CROSS JOIN leave_types lt
    LEFT JOIN entitlements e ON e.position_id = u.position_id AND e.leave_type_id = lt.id
    LEFT JOIN usage_records ur ON ur.user_id = u.id AND ur.leave_type_id = lt.id
    WHERE u.status = 'active'
      AND (e.days IS NOT NULL OR ur.days_used IS NOT NULL OR lt.unlimited)
  `
	args := []any{}
	if departmentID != "" {
		args = append(args, departmentID)
		query += " AND u.department_id = $1"
	}
	query += " ORDER BY u.name, lt.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.UserName, &row.Email, &row.Department, &row.Position,
			&row.LeaveTypeName, &row.Unlimited, &row.EntitledDays, &row.DaysUsed, &row.HoursUsed); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

func (s *Store) ActiveUserCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE status = 'active'").Scan(&count)
	return count, err
}

func (s *Store) PendingRequestCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests WHERE status = $1", leave.StatusPending).Scan(&count)
	return count, err
}

func (s *Store) ApprovedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM leave_requests
    WHERE status = $1 AND approved_at >= $2
  `, leave.StatusApproved, since).Scan(&count)
	return count, err
}

func (s *Store) UpcomingHolidayCount(ctx context.Context, from time.Time, days int) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM holidays
    WHERE date >= $1 AND date < $2
  `, from, from.AddDate(0, 0, days)).Scan(&count)
	return count, err
}
