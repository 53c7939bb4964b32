package mailer

import (
	"context"
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

var ErrSendFailed = errors.New("mail send failed")

// Message is a single outbound mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message. Implementations must be safe for
// concurrent use; the dispatcher calls Send from its worker goroutine.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages over SMTP. Each Send dials a fresh
// connection; delivery volume here is low enough that pooling is not worth
// the reconnect bookkeeping.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(out); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
