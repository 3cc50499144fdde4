// Package mailer provides the outbound email capability: reason-selected
// templates rendered with Liquid and delivered through SES or an SMTP relay.
package mailer

import (
	"context"
	"time"
)

// Message is one outbound email.
type Message struct {
	To          string
	FromName    string
	FromAddress string
	Subject     string
	TextBody    string
	HTMLBody    string
}

// SendResult reports the outcome of one delivery attempt.
type SendResult struct {
	Status    string // "sent" or "failed"
	Provider  string
	MessageID string
	Error     string
	SentAt    time.Time
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Sender delivers a single email. Implementations are independently
// retryable and must honor ctx deadlines.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*SendResult, error)
}
