package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/linuxmathew/customer-success-workflow/internal/pkg/logger"
)

// Mailer sends the templated follow-up email selected by reason and returns
// the provider's message id.
type Mailer interface {
	SendReason(ctx context.Context, reason string, rec EnrichedRecord) (messageID string, err error)
}

// Ticket is the escalation payload handed to the ticketing integration.
type Ticket struct {
	Email        string
	ClientID     string
	DaysInactive int
	Reason       string
}

// TicketRef identifies a created ticket.
type TicketRef struct {
	ID  string
	URL string
}

// Ticketer opens an escalation ticket.
type Ticketer interface {
	CreateTicket(ctx context.Context, t Ticket) (*TicketRef, error)
}

// Dispatcher routes each enriched record to exactly one follow-up action.
// Only the exact thresholds 3 and 7 trigger messaging; the 4-6 and 8-13 day
// ranges take no action, and 14+ escalates. Records are dispatched
// independently: one record's failure never blocks its siblings, and
// outcomes keep enrichment order regardless of completion order.
type Dispatcher struct {
	mailer        Mailer
	ticketer      Ticketer
	workers       int
	actionTimeout time.Duration
}

// NewDispatcher creates a Dispatcher with bounded concurrency. workers <= 0
// defaults to 4; actionTimeout <= 0 defaults to 30s.
func NewDispatcher(m Mailer, t Ticketer, workers int, actionTimeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if actionTimeout <= 0 {
		actionTimeout = 30 * time.Second
	}
	return &Dispatcher{mailer: m, ticketer: t, workers: workers, actionTimeout: actionTimeout}
}

// Dispatch evaluates every record and triggers its action, returning one
// outcome per record in input order. When ctx is canceled no further
// dispatches are issued; in-flight calls finish and only their outcomes are
// returned, so the result may be a prefix of the input.
func (d *Dispatcher) Dispatch(ctx context.Context, records []EnrichedRecord) []DispatchOutcome {
	outcomes := make([]DispatchOutcome, len(records))
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	issued := len(records)
	for i, rec := range records {
		if ctx.Err() != nil {
			issued = i
			logger.Warn("dispatch canceled, returning partial summary",
				"issued", issued, "total", len(records))
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec EnrichedRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = d.dispatchOne(ctx, rec)
		}(i, rec)
	}
	wg.Wait()

	return outcomes[:issued]
}

func (d *Dispatcher) dispatchOne(ctx context.Context, rec EnrichedRecord) DispatchOutcome {
	outcome := DispatchOutcome{
		Email:        rec.Email(),
		ClientID:     rec.ClientID(),
		DaysInactive: rec.DaysInactive,
		ChosenAction: ActionNone,
		Timestamp:    time.Now().UTC(),
	}

	switch {
	case rec.DaysInactive == 3:
		outcome.ChosenAction = ActionReminder
		d.sendMail(ctx, ReasonThreeDayReminder, rec, &outcome)
	case rec.DaysInactive == 7:
		outcome.ChosenAction = ActionCheckIn
		d.sendMail(ctx, ReasonSevenDayCheckIn, rec, &outcome)
	case rec.DaysInactive >= 14:
		outcome.ChosenAction = ActionEscalation
		d.createTicket(ctx, rec, &outcome)
	}
	// All other values, including 4-6 and 8-13, take no action.

	return outcome
}

func (d *Dispatcher) sendMail(ctx context.Context, reason string, rec EnrichedRecord, outcome *DispatchOutcome) {
	ctx, cancel := context.WithTimeout(ctx, d.actionTimeout)
	defer cancel()

	messageID, err := d.mailer.SendReason(ctx, reason, rec)
	if err != nil {
		outcome.Error = err.Error()
		logger.Error("email dispatch failed",
			"email", rec.Email(), "reason", reason, "error", err.Error())
		return
	}
	outcome.MessageID = messageID
	logger.Info("email dispatched",
		"email", rec.Email(), "reason", reason, "message_id", messageID)
}

func (d *Dispatcher) createTicket(ctx context.Context, rec EnrichedRecord, outcome *DispatchOutcome) {
	ctx, cancel := context.WithTimeout(ctx, d.actionTimeout)
	defer cancel()

	ref, err := d.ticketer.CreateTicket(ctx, Ticket{
		Email:        rec.Email(),
		ClientID:     rec.ClientID(),
		DaysInactive: rec.DaysInactive,
		Reason:       ReasonEscalate,
	})
	if err != nil {
		outcome.Error = err.Error()
		logger.Error("escalation ticket failed",
			"email", rec.Email(), "error", err.Error())
		return
	}
	outcome.TicketID = ref.ID
	outcome.TicketURL = ref.URL
	logger.Info("escalation ticket created",
		"email", rec.Email(), "ticket_id", ref.ID, "days_inactive", rec.DaysInactive)
}
