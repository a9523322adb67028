package leave

import (
	"context"
	"errors"
	"time"

	"leavedesk/internal/domain/quota"
	"leavedesk/internal/platform/querier"
	"leavedesk/internal/platform/storage"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrSelfApproval = errors.New("cannot approve own request")
	ErrForbidden    = errors.New("forbidden")
	ErrBadWindow    = errors.New("invalid leave window")
)

type Service struct {
	DB     querier.DB
	Ledger *quota.Ledger
	Files  *storage.Store
}

func NewService(db querier.DB, ledger *quota.Ledger, files *storage.Store) *Service {
	return &Service{DB: db, Ledger: ledger, Files: files}
}

func (s *Service) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, category, unlimited, hour_based, requires_doc, created_at
    FROM leave_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Unlimited, &t.HourBased, &t.RequiresDoc, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Service) CreateType(ctx context.Context, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, category, unlimited, hour_based, requires_doc)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, payload.Name, payload.Category, payload.Unlimited, payload.HourBased, payload.RequiresDoc).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) UpdateType(ctx context.Context, payload LeaveType) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types
    SET name = $1, category = $2, unlimited = $3, hour_based = $4, requires_doc = $5
    WHERE id = $6
  `, payload.Name, payload.Category, payload.Unlimited, payload.HourBased, payload.RequiresDoc, payload.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteType(ctx context.Context, typeID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_types WHERE id = $1", typeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	sql := "SELECT id, date, name FROM holidays"
	args := []any{}
	if year > 0 {
		sql += " WHERE date >= $1 AND date < $2"
		args = append(args,
			time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	sql += " ORDER BY date"

	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Service) CreateHoliday(ctx context.Context, date time.Time, name string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (date, name)
    VALUES ($1,$2)
    RETURNING id
  `, date, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, holidayID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE id = $1", holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
