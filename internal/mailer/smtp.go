package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	appconfig "github.com/linuxmathew/customer-success-workflow/internal/config"
)

// SMTPSender delivers mail through an SMTP relay (Brevo-style) with
// STARTTLS on the submission ports.
type SMTPSender struct {
	host   string
	port   int
	user   string
	secret string
}

// NewSMTPSender creates an SMTP relay sender.
func NewSMTPSender(cfg appconfig.SMTPConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:   cfg.Host,
		port:   port,
		user:   cfg.User,
		secret: cfg.Secret,
	}
}

// Send delivers a single email over SMTP. The relay does not return a
// message id, so one is synthesized for traceability.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	if s.host == "" || msg.FromAddress == "" {
		err := fmt.Errorf("smtp host or from_address not configured")
		return &SendResult{Status: StatusFailed, Provider: "smtp", Error: err.Error()}, err
	}

	deadline := time.Now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return &SendResult{Status: StatusFailed, Provider: "smtp", Error: err.Error()}, err
	}
	conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return &SendResult{Status: StatusFailed, Provider: "smtp", Error: err.Error()}, err
	}
	defer client.Close()

	if err := s.deliver(client, msg); err != nil {
		return &SendResult{Status: StatusFailed, Provider: "smtp", Error: err.Error()}, err
	}

	return &SendResult{
		Status:    StatusSent,
		Provider:  "smtp",
		MessageID: fmt.Sprintf("smtp-%d", time.Now().UTC().UnixMilli()),
		SentAt:    time.Now().UTC(),
	}, nil
}

func (s *SMTPSender) deliver(client *smtp.Client, msg *Message) error {
	if err := client.Hello("localhost"); err != nil {
		return err
	}

	// STARTTLS on the submission ports
	if s.port == 587 || s.port == 25 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return err
			}
		}
	}

	if s.user != "" && s.secret != "" {
		auth := smtp.PlainAuth("", s.user, s.secret, s.host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(msg.FromAddress); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(buildRFC822(msg))); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildRFC822 assembles a plain-text message with headers.
func buildRFC822(msg *Message) string {
	var b strings.Builder
	from := msg.FromAddress
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromAddress)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.TextBody)
	b.WriteString("\r\n")
	return b.String()
}
