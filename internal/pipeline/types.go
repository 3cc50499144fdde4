// Package pipeline implements the customer-success automation flow:
// raw spreadsheet rows are normalized into records, cleaned, enriched with
// inactivity metrics, and dispatched to tier-appropriate follow-up actions.
package pipeline

import (
	"time"
)

// Record is one normalized user-activity entry, keyed by canonical field
// names. Stages never mutate a Record in place; each stage produces its own
// copies.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Canonical field names required of every valid record.
const (
	FieldEmail     = "email"
	FieldLastLogin = "last_login"
	FieldClientID  = "client_id"
)

// RequiredFields is the set of fields a record must carry to survive
// validation.
var RequiredFields = []string{FieldEmail, FieldLastLogin, FieldClientID}

// Status is the engagement tier derived from days of inactivity.
type Status string

const (
	StatusActive   Status = "active"
	StatusWarning  Status = "warning"
	StatusAtRisk   Status = "at-risk"
	StatusEscalate Status = "escalate"
)

// EnrichedRecord is a Record augmented with the inactivity metric and its
// engagement tier. Status is always a pure function of DaysInactive.
type EnrichedRecord struct {
	Record       Record `json:"record"`
	DaysInactive int    `json:"days_inactive"`
	Status       Status `json:"status"`
}

// Email returns the record's email address.
func (e EnrichedRecord) Email() string { return e.Record[FieldEmail] }

// ClientID returns the record's client id.
func (e EnrichedRecord) ClientID() string { return e.Record[FieldClientID] }

// Action identifies the follow-up taken for one record.
type Action string

const (
	ActionNone       Action = "no_action"
	ActionReminder   Action = "friendly_reminder_triggered"
	ActionCheckIn    Action = "help_check_in_triggered"
	ActionEscalation Action = "escalation_triggered"
)

// Reasons passed to the downstream actions, selecting the email template or
// labeling the escalation ticket.
const (
	ReasonThreeDayReminder = "3_day_reminder"
	ReasonSevenDayCheckIn  = "7_day_check_in"
	ReasonEscalate         = "escalate_14_plus"
)

// DispatchOutcome is the per-record result of the dispatch stage. Error is
// set when the downstream action failed or the record could not be enriched;
// the batch always continues past such records.
type DispatchOutcome struct {
	Email        string    `json:"email"`
	ClientID     string    `json:"client_id,omitempty"`
	DaysInactive int       `json:"days_inactive"`
	ChosenAction Action    `json:"chosen_action"`
	MessageID    string    `json:"message_id,omitempty"`
	TicketID     string    `json:"ticket_id,omitempty"`
	TicketURL    string    `json:"ticket_url,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// RunSummary is the complete, ordered result of one pipeline invocation.
// Immutable once returned: one outcome per record that survived validation,
// in input order.
type RunSummary struct {
	RunID         string            `json:"run_id"`
	SpreadsheetID string            `json:"spreadsheet_id,omitempty"`
	ReferenceDate string            `json:"reference_date"`
	StartedAt     time.Time         `json:"started_at"`
	CompletedAt   time.Time         `json:"completed_at"`
	Partial       bool              `json:"partial,omitempty"`
	Outcomes      []DispatchOutcome `json:"outcomes"`
	Counts        RunCounts         `json:"counts"`
}

// RunCounts aggregates a run's outcomes.
type RunCounts struct {
	FetchedRows  int `json:"fetched_rows"`
	Normalized   int `json:"normalized"`
	Validated    int `json:"validated"`
	Reminders    int `json:"reminders"`
	CheckIns     int `json:"check_ins"`
	Escalations  int `json:"escalations"`
	NoAction     int `json:"no_action"`
	InvalidDates int `json:"invalid_dates"`
	Failures     int `json:"failures"`
}

// tally recomputes counts from a list of outcomes.
func tally(outcomes []DispatchOutcome) RunCounts {
	var c RunCounts
	for _, o := range outcomes {
		switch o.ChosenAction {
		case ActionReminder:
			c.Reminders++
		case ActionCheckIn:
			c.CheckIns++
		case ActionEscalation:
			c.Escalations++
		default:
			c.NoAction++
		}
		if o.Error != "" {
			c.Failures++
		}
	}
	return c
}
