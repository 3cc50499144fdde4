package mailer

import (
	"context"
	"fmt"

	"github.com/linuxmathew/customer-success-workflow/internal/pipeline"
	"github.com/linuxmathew/customer-success-workflow/internal/pkg/logger"
)

// Service implements pipeline.Mailer: it picks the template for a dispatch
// reason, renders it for the record, and hands the message to the
// configured sender.
type Service struct {
	templates   *TemplateStore
	sender      Sender
	fromName    string
	fromAddress string
	dryRun      bool
}

// NewService assembles the mail service.
func NewService(sender Sender, fromName, fromAddress string, dryRun bool) *Service {
	return &Service{
		templates:   NewTemplateStore(),
		sender:      sender,
		fromName:    fromName,
		fromAddress: fromAddress,
		dryRun:      dryRun,
	}
}

// SendReason renders and sends the follow-up email for a record.
func (s *Service) SendReason(ctx context.Context, reason string, rec pipeline.EnrichedRecord) (string, error) {
	vars := map[string]interface{}{
		"email":         rec.Email(),
		"name":          rec.Record["name"],
		"client_id":     rec.ClientID(),
		"last_login":    rec.Record[pipeline.FieldLastLogin],
		"days_inactive": rec.DaysInactive,
	}

	subject, body, err := s.templates.Render(reason, vars)
	if err != nil {
		return "", err
	}

	if s.dryRun {
		logger.Info("dry-run: email suppressed",
			"email", rec.Email(), "reason", reason, "subject", subject)
		return "dry-run", nil
	}

	result, err := s.sender.Send(ctx, &Message{
		To:          rec.Email(),
		FromName:    s.fromName,
		FromAddress: s.fromAddress,
		Subject:     subject,
		TextBody:    body,
	})
	if err != nil {
		return "", err
	}
	if result.Status != StatusSent {
		return "", fmt.Errorf("send failed: %s", result.Error)
	}
	return result.MessageID, nil
}
