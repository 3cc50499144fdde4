package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type mailCall struct {
	Reason string
	Email  string
}

type stubMailer struct {
	mu      sync.Mutex
	calls   []mailCall
	failFor map[string]error // keyed by email
}

func (m *stubMailer) SendReason(ctx context.Context, reason string, rec EnrichedRecord) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mailCall{Reason: reason, Email: rec.Email()})
	m.mu.Unlock()
	if err, ok := m.failFor[rec.Email()]; ok {
		return "", err
	}
	return "msg-" + rec.Email(), nil
}

type stubTicketer struct {
	mu      sync.Mutex
	tickets []Ticket
	err     error
}

func (s *stubTicketer) CreateTicket(ctx context.Context, t Ticket) (*TicketRef, error) {
	s.mu.Lock()
	s.tickets = append(s.tickets, t)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &TicketRef{ID: "card-1", URL: "https://trello.example/c/card-1"}, nil
}

func enrichedFor(email string, days int) EnrichedRecord {
	return EnrichedRecord{
		Record: Record{
			FieldEmail:     email,
			FieldLastLogin: "2025-11-01",
			FieldClientID:  "C-" + email,
		},
		DaysInactive: days,
		Status:       StatusFor(days),
	}
}

func TestDispatchActionPerDays(t *testing.T) {
	tests := []struct {
		days       int
		wantAction Action
		wantMail   bool
		wantTicket bool
	}{
		{0, ActionNone, false, false},
		{2, ActionNone, false, false},
		{3, ActionReminder, true, false},
		{4, ActionNone, false, false},
		{5, ActionNone, false, false},
		{6, ActionNone, false, false},
		{7, ActionCheckIn, true, false},
		{8, ActionNone, false, false},
		{13, ActionNone, false, false},
		{14, ActionEscalation, false, true},
		{20, ActionEscalation, false, true},
		{-1, ActionNone, false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("days_%d", tt.days), func(t *testing.T) {
			mailer := &stubMailer{}
			ticketer := &stubTicketer{}
			d := NewDispatcher(mailer, ticketer, 1, time.Second)

			outcomes := d.Dispatch(context.Background(), []EnrichedRecord{enrichedFor("a@x.com", tt.days)})

			if outcomes[0].ChosenAction != tt.wantAction {
				t.Errorf("action = %s, want %s", outcomes[0].ChosenAction, tt.wantAction)
			}
			if gotMail := len(mailer.calls) > 0; gotMail != tt.wantMail {
				t.Errorf("mail called = %v, want %v", gotMail, tt.wantMail)
			}
			if gotTicket := len(ticketer.tickets) > 0; gotTicket != tt.wantTicket {
				t.Errorf("ticket called = %v, want %v", gotTicket, tt.wantTicket)
			}
			if outcomes[0].Error != "" {
				t.Errorf("unexpected error: %s", outcomes[0].Error)
			}
		})
	}
}

func TestDispatchReasons(t *testing.T) {
	mailer := &stubMailer{}
	ticketer := &stubTicketer{}
	d := NewDispatcher(mailer, ticketer, 1, time.Second)

	d.Dispatch(context.Background(), []EnrichedRecord{
		enrichedFor("three@x.com", 3),
		enrichedFor("seven@x.com", 7),
	})

	if len(mailer.calls) != 2 {
		t.Fatalf("got %d mail calls, want 2", len(mailer.calls))
	}
	if mailer.calls[0].Reason != ReasonThreeDayReminder {
		t.Errorf("reason = %s, want %s", mailer.calls[0].Reason, ReasonThreeDayReminder)
	}
	if mailer.calls[1].Reason != ReasonSevenDayCheckIn {
		t.Errorf("reason = %s, want %s", mailer.calls[1].Reason, ReasonSevenDayCheckIn)
	}
}

func TestDispatchEscalationPayload(t *testing.T) {
	ticketer := &stubTicketer{}
	d := NewDispatcher(&stubMailer{}, ticketer, 1, time.Second)

	outcomes := d.Dispatch(context.Background(), []EnrichedRecord{enrichedFor("late@x.com", 20)})

	if len(ticketer.tickets) != 1 {
		t.Fatalf("got %d tickets, want 1", len(ticketer.tickets))
	}
	tk := ticketer.tickets[0]
	if tk.Email != "late@x.com" || tk.ClientID != "C-late@x.com" || tk.DaysInactive != 20 {
		t.Errorf("ticket payload = %+v", tk)
	}
	if tk.Reason != ReasonEscalate {
		t.Errorf("reason = %s, want %s", tk.Reason, ReasonEscalate)
	}
	if outcomes[0].TicketID != "card-1" || outcomes[0].TicketURL == "" {
		t.Errorf("outcome should carry the ticket ref: %+v", outcomes[0])
	}
}

func TestDispatchFailureDoesNotBlockSiblings(t *testing.T) {
	mailer := &stubMailer{failFor: map[string]error{
		"broken@x.com": fmt.Errorf("smtp timeout"),
	}}
	d := NewDispatcher(mailer, &stubTicketer{}, 2, time.Second)

	outcomes := d.Dispatch(context.Background(), []EnrichedRecord{
		enrichedFor("broken@x.com", 3),
		enrichedFor("fine@x.com", 3),
	})

	if outcomes[0].Error == "" {
		t.Errorf("failed record should carry its error")
	}
	if outcomes[0].ChosenAction != ActionReminder {
		t.Errorf("attempted action should still be recorded, got %s", outcomes[0].ChosenAction)
	}
	if outcomes[1].Error != "" || outcomes[1].MessageID == "" {
		t.Errorf("sibling should be unaffected: %+v", outcomes[1])
	}
}

func TestDispatchPreservesOrderUnderConcurrency(t *testing.T) {
	records := make([]EnrichedRecord, 50)
	for i := range records {
		records[i] = enrichedFor(fmt.Sprintf("user%d@x.com", i), 3)
	}

	d := NewDispatcher(&stubMailer{}, &stubTicketer{}, 8, time.Second)
	outcomes := d.Dispatch(context.Background(), records)

	if len(outcomes) != len(records) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(records))
	}
	for i, o := range outcomes {
		want := fmt.Sprintf("user%d@x.com", i)
		if o.Email != want {
			t.Errorf("outcome %d: email = %s, want %s", i, o.Email, want)
		}
	}
}

func TestDispatchCanceledContextStopsIssuing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(&stubMailer{}, &stubTicketer{}, 2, time.Second)
	outcomes := d.Dispatch(ctx, []EnrichedRecord{
		enrichedFor("a@x.com", 3),
		enrichedFor("b@x.com", 3),
	})

	if len(outcomes) != 0 {
		t.Errorf("pre-canceled context should issue no dispatches, got %d", len(outcomes))
	}
}
