package email

import (
	"gopkg.in/gomail.v2"

	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/platform/config"
)

type noopMailer struct{}

func (noopMailer) Send(to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
