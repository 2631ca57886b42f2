// Package notify sends due-date reminder emails to borrowers. A daily
// scheduler collects every unreturned loan that is due or overdue and mails
// the borrower on behalf of the lender. Failed sends are logged and skipped;
// the next daily run picks the loan up again if it is still open.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer delivers a single reminder message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay using net/smtp.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates a mailer for the given relay. Username may be empty
// for relays that accept unauthenticated submission (e.g. a local sendmail
// bridge).
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: sending mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes reminders to the log instead of sending them. Used when
// no SMTP relay is configured, so the scheduler keeps running in development
// setups without silently losing the reminders.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.logger.Info("reminder mail (no SMTP relay configured)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
