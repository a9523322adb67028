package notifications

import (
	"context"
	"log/slog"
)

const (
	TypeLeaveSubmitted = "leave_submitted"
	TypeLeaveApproved  = "leave_approved"
	TypeLeaveRejected  = "leave_rejected"
	TypeLeaveDeleted   = "leave_deleted"
	TypeAnnouncement   = "announcement"
	TypeQuotaReset     = "quota_reset"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// Pusher delivers a push message to an external channel identity (a LINE
// user ID here).
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// Service stores an in-app notification row, then fans out to email and push.
// The row is the source of truth; delivery failures on the side channels are
// logged and swallowed.
type Service struct {
	store  *Store
	Mailer Mailer
	Pusher Pusher
}

func New(store *Store, mailer Mailer, pusher Pusher) *Service {
	return &Service{store: store, Mailer: mailer, Pusher: pusher}
}

func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		return err
	}

	contact, err := s.store.UserContact(ctx, userID)
	if err != nil {
		slog.Warn("notification contact lookup failed", "userId", userID, "err", err)
		return nil
	}

	if s.Mailer != nil && contact.Email != "" {
		if err := s.Mailer.Send(contact.Email, title, body); err != nil {
			slog.Warn("notification email send failed", "userId", userID, "err", err)
		}
	}
	if s.Pusher != nil && contact.LineUserID != "" {
		if err := s.Pusher.Push(ctx, contact.LineUserID, title+"\n"+body); err != nil {
			slog.Warn("notification line push failed", "userId", userID, "err", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
