package leave

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

func (s *Service) saveAttachment(ctx context.Context, q querier.Querier, requestID string, upload Upload) (Attachment, error) {
	var attachment Attachment

	storedName, err := s.Files.Save(upload.Data, upload.FileName)
	if err != nil {
		return attachment, err
	}

	attachment = Attachment{
		LeaveRequestID: requestID,
		FileName:       upload.FileName,
		ContentType:    upload.ContentType,
		FileSize:       upload.Size,
		StoredName:     storedName,
	}
	if err := q.QueryRow(ctx, `
    INSERT INTO leave_attachments (leave_request_id, file_name, content_type, file_size, stored_name)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, requestID, upload.FileName, upload.ContentType, upload.Size, storedName).
		Scan(&attachment.ID, &attachment.CreatedAt); err != nil {
		// The row is the source of truth; an orphaned file is just garbage.
		_ = s.Files.Remove(storedName)
		return attachment, err
	}
	return attachment, nil
}

func (s *Service) listAttachments(ctx context.Context, q querier.Querier, requestID string) ([]Attachment, error) {
	rows, err := q.Query(ctx, `
    SELECT id, leave_request_id, file_name, content_type, file_size, stored_name, created_at
    FROM leave_attachments
    WHERE leave_request_id = $1
    ORDER BY created_at
  `, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.LeaveRequestID, &a.FileName, &a.ContentType, &a.FileSize, &a.StoredName, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// AttachmentFile resolves an attachment row and opens its file.
func (s *Service) AttachmentFile(ctx context.Context, requestID, attachmentID string) (Attachment, *os.File, error) {
	var a Attachment
	err := s.DB.QueryRow(ctx, `
    SELECT id, leave_request_id, file_name, content_type, file_size, stored_name, created_at
    FROM leave_attachments
    WHERE id = $1 AND leave_request_id = $2
  `, attachmentID, requestID).Scan(&a.ID, &a.LeaveRequestID, &a.FileName, &a.ContentType, &a.FileSize, &a.StoredName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, nil, ErrNotFound
	}
	if err != nil {
		return a, nil, err
	}

	file, err := s.Files.Open(a.StoredName)
	if err != nil {
		return a, nil, err
	}
	return a, file, nil
}
