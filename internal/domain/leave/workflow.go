package leave

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/domain/quota"
	"leavedesk/internal/platform/querier"
)

// TransitionResult carries what handlers need to notify the affected user.
type TransitionResult struct {
	RequestID     string
	UserID        string
	LeaveTypeID   string
	LeaveTypeName string
	Status        string
	Duration      quota.Duration
}

// Approve moves a pending request to approved and consumes its duration from
// the ledger. Status transition, quota check, and consumption commit or roll
// back together; a request is never approved without its consumption.
func (s *Service) Approve(ctx context.Context, requestID, approverID string) (TransitionResult, error) {
	var result TransitionResult

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer rollback(ctx, tx, "leave approve")

	req, err := s.requestByID(ctx, tx, requestID, true)
	if err != nil {
		return result, err
	}
	if req.Status != StatusPending {
		return result, ErrInvalidState
	}
	if req.UserID == approverID {
		return result, ErrSelfApproval
	}

	positionID, leaveTypeName, err := requestContext(ctx, tx, req)
	if err != nil {
		return result, err
	}

	duration, _ := quota.Normalize(window(req), s.Ledger.HoursPerDay)
	if err := s.Ledger.Check(ctx, tx, req.UserID, positionID, req.LeaveTypeID, duration); err != nil {
		return result, err
	}
	if err := s.Ledger.Consume(ctx, tx, req.UserID, req.LeaveTypeID, duration); err != nil {
		return result, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approved_by = $2, approved_at = now()
    WHERE id = $3
  `, StatusApproved, approverID, requestID); err != nil {
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	return TransitionResult{
		RequestID:     requestID,
		UserID:        req.UserID,
		LeaveTypeID:   req.LeaveTypeID,
		LeaveTypeName: leaveTypeName,
		Status:        StatusApproved,
		Duration:      duration,
	}, nil
}

// Reject declines a pending request, or un-approves an approved one by
// reverting its consumption first. A failed reversion aborts the rejection:
// the ledger and the request status never diverge.
func (s *Service) Reject(ctx context.Context, requestID, approverID string) (TransitionResult, error) {
	var result TransitionResult

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer rollback(ctx, tx, "leave reject")

	req, err := s.requestByID(ctx, tx, requestID, true)
	if err != nil {
		return result, err
	}
	if req.Status == StatusRejected {
		return result, ErrInvalidState
	}
	if req.UserID == approverID {
		return result, ErrSelfApproval
	}

	_, leaveTypeName, err := requestContext(ctx, tx, req)
	if err != nil {
		return result, err
	}

	duration, _ := quota.Normalize(window(req), s.Ledger.HoursPerDay)
	if req.Status == StatusApproved {
		if err := s.Ledger.Revert(ctx, tx, req.UserID, req.LeaveTypeID, duration); err != nil {
			return result, err
		}
	}

	if _, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approved_by = $2, approved_at = now()
    WHERE id = $3
  `, StatusRejected, approverID, requestID); err != nil {
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	return TransitionResult{
		RequestID:     requestID,
		UserID:        req.UserID,
		LeaveTypeID:   req.LeaveTypeID,
		LeaveTypeName: leaveTypeName,
		Status:        StatusRejected,
		Duration:      duration,
	}, nil
}

// Delete removes a request and its attachments. An approved request has its
// consumption reverted in the same transaction. Employees may delete their
// own non-approved requests; deleting approved ones is an admin action, which
// the route guard enforces.
func (s *Service) Delete(ctx context.Context, requestID, actorID string, actorIsAdmin bool) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx, "leave delete")

	req, err := s.requestByID(ctx, tx, requestID, true)
	if err != nil {
		return err
	}
	if !actorIsAdmin {
		if req.UserID != actorID {
			return ErrForbidden
		}
		if req.Status == StatusApproved {
			return ErrInvalidState
		}
	}

	if req.Status == StatusApproved {
		duration, _ := quota.Normalize(window(req), s.Ledger.HoursPerDay)
		if err := s.Ledger.Revert(ctx, tx, req.UserID, req.LeaveTypeID, duration); err != nil {
			return err
		}
	}

	attachments, err := s.listAttachments(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM leave_attachments WHERE leave_request_id = $1", requestID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM leave_requests WHERE id = $1", requestID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// File removal happens after commit; a leftover file is waste, not a
	// consistency problem.
	for _, attachment := range attachments {
		if err := s.Files.Remove(attachment.StoredName); err != nil {
			slog.Warn("attachment file removal failed", "requestId", requestID, "storedName", attachment.StoredName, "err", err)
		}
	}
	return nil
}

// window rebuilds the normalizer input from stored request fields; approval
// and reversion both go through it, so reverts recompute the exact amount
// that was consumed.
func window(req LeaveRequest) quota.Window {
	return quota.Window{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

func requestContext(ctx context.Context, q querier.Querier, req LeaveRequest) (positionID, leaveTypeName string, err error) {
	err = q.QueryRow(ctx, `
    SELECT COALESCE(u.position_id::text, ''), lt.name
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id
    JOIN leave_types lt ON lt.id = r.leave_type_id
    WHERE r.id = $1
  `, req.ID).Scan(&positionID, &leaveTypeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return positionID, leaveTypeName, err
}

func rollback(ctx context.Context, tx pgx.Tx, op string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("rollback failed", "op", op, "err", err)
	}
}
