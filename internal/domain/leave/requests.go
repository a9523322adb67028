package leave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/platform/querier"
)

type SubmitInput struct {
	UserID      string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	StartTime   string
	EndTime     string
	Reason      string
}

type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Submit records a pending request. The ledger is untouched until approval.
func (s *Service) Submit(ctx context.Context, input SubmitInput, uploads []Upload) (LeaveRequest, error) {
	var req LeaveRequest

	leaveType, err := s.typeByID(ctx, input.LeaveTypeID)
	if err != nil {
		return req, err
	}
	if err := validateWindow(input, leaveType); err != nil {
		return req, err
	}
	if leaveType.RequiresDoc && len(uploads) == 0 {
		return req, fmt.Errorf("%w: supporting document required", ErrBadWindow)
	}

	req = LeaveRequest{
		UserID:      input.UserID,
		LeaveTypeID: input.LeaveTypeID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Reason:      input.Reason,
		Status:      StatusPending,
	}
	// Request row and attachment rows land together or not at all.
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return req, err
	}
	defer rollback(ctx, tx, "submit")

	if err := tx.QueryRow(ctx, `
    INSERT INTO leave_requests (user_id, leave_type_id, start_date, end_date, start_time, end_time, reason, status)
    VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),$7,$8)
    RETURNING id, created_at
  `, req.UserID, req.LeaveTypeID, req.StartDate, req.EndDate, req.StartTime, req.EndTime, req.Reason, req.Status).
		Scan(&req.ID, &req.CreatedAt); err != nil {
		return req, err
	}

	var storedNames []string
	for _, upload := range uploads {
		attachment, err := s.saveAttachment(ctx, tx, req.ID, upload)
		if err != nil {
			s.removeStored(storedNames)
			return req, err
		}
		storedNames = append(storedNames, attachment.StoredName)
		req.Attachments = append(req.Attachments, attachment)
	}

	if err := tx.Commit(ctx); err != nil {
		s.removeStored(storedNames)
		return req, err
	}
	return req, nil
}

func (s *Service) removeStored(names []string) {
	for _, name := range names {
		_ = s.Files.Remove(name)
	}
}

func validateWindow(input SubmitInput, leaveType LeaveType) error {
	hourDenominated := input.StartTime != "" || input.EndTime != ""
	if hourDenominated {
		if input.StartTime == "" || input.EndTime == "" {
			return fmt.Errorf("%w: both start and end times are required", ErrBadWindow)
		}
		if !leaveType.HourBased {
			return fmt.Errorf("%w: leave type does not allow hour-based requests", ErrBadWindow)
		}
		return nil
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrBadWindow)
	}
	if input.EndDate.Before(input.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrBadWindow)
	}
	return nil
}

func (s *Service) typeByID(ctx context.Context, leaveTypeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, category, unlimited, hour_based, requires_doc, created_at
    FROM leave_types
    WHERE id = $1
  `, leaveTypeID).Scan(&t.ID, &t.Name, &t.Category, &t.Unlimited, &t.HourBased, &t.RequiresDoc, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

type RequestListResult struct {
	Requests []LeaveRequest `json:"requests"`
	Total    int            `json:"total"`
}

// ListRequests scopes by role: employees see their own requests, approvers
// and admins see everything.
func (s *Service) ListRequests(ctx context.Context, viewer auth.UserContext, status string, limit, offset int) (RequestListResult, error) {
	var result RequestListResult

	where := " WHERE 1=1"
	args := []any{}
	if viewer.RoleName == auth.RoleEmployee {
		args = append(args, viewer.UserID)
		where += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests r"+where, args...).Scan(&result.Total); err != nil {
		return result, err
	}

	query := `
    SELECT r.id, r.user_id, u.name, r.leave_type_id, r.start_date, r.end_date,
           COALESCE(r.start_time,''), COALESCE(r.end_time,''),
           r.reason, r.status, COALESCE(r.approved_by::text,''), r.approved_at, r.created_at
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id
  ` + where + fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		var req LeaveRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.UserName, &req.LeaveTypeID, &req.StartDate, &req.EndDate,
			&req.StartTime, &req.EndTime, &req.Reason, &req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.CreatedAt); err != nil {
			return result, err
		}
		result.Requests = append(result.Requests, req)
	}
	if err := rows.Err(); err != nil {
		return result, err
	}

	for i := range result.Requests {
		attachments, err := s.listAttachments(ctx, s.DB, result.Requests[i].ID)
		if err != nil {
			return result, err
		}
		result.Requests[i].Attachments = attachments
	}
	return result, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (LeaveRequest, error) {
	req, err := s.requestByID(ctx, s.DB, requestID, false)
	if err != nil {
		return req, err
	}
	req.Attachments, err = s.listAttachments(ctx, s.DB, requestID)
	return req, err
}

// requestByID reads one request; with lock it takes FOR UPDATE so lifecycle
// transitions serialize per request.
func (s *Service) requestByID(ctx context.Context, q querier.Querier, requestID string, lock bool) (LeaveRequest, error) {
	query := `
    SELECT id, user_id, leave_type_id, start_date, end_date,
           COALESCE(start_time,''), COALESCE(end_time,''),
           reason, status, COALESCE(approved_by::text,''), approved_at, created_at
    FROM leave_requests
    WHERE id = $1
  `
	if lock {
		query += " FOR UPDATE"
	}
	var req LeaveRequest
	err := q.QueryRow(ctx, query, requestID).Scan(&req.ID, &req.UserID, &req.LeaveTypeID, &req.StartDate, &req.EndDate,
		&req.StartTime, &req.EndTime, &req.Reason, &req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return req, ErrNotFound
	}
	return req, err
}
