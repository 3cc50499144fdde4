package trello

import (
	"context"
	"fmt"

	"github.com/linuxmathew/customer-success-workflow/internal/pipeline"
)

// Escalator implements pipeline.Ticketer by opening a Trello card per
// escalated record.
type Escalator struct {
	client *Client
}

// NewEscalator wraps a Trello client as the pipeline's ticketing action.
func NewEscalator(client *Client) *Escalator {
	return &Escalator{client: client}
}

// CreateTicket opens the escalation card and returns its reference.
func (e *Escalator) CreateTicket(ctx context.Context, t pipeline.Ticket) (*pipeline.TicketRef, error) {
	title := fmt.Sprintf("Escalation: %s inactive for %d days", t.Email, t.DaysInactive)
	desc := fmt.Sprintf(
		"Customer has not logged in for %d days.\n\nEmail: %s\nClient ID: %s\nReason: %s\n\nPlease reach out directly.",
		t.DaysInactive, t.Email, t.ClientID, t.Reason,
	)

	card, err := e.client.CreateCard(ctx, title, desc)
	if err != nil {
		return nil, err
	}

	url := card.URL
	if url == "" {
		url = card.ShortURL
	}
	return &pipeline.TicketRef{ID: card.ID, URL: url}, nil
}
