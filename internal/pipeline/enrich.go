package pipeline

import (
	"fmt"
	"time"
)

// dateLayout is the calendar date form last_login must arrive in.
const dateLayout = "2006-01-02"

// InvalidDateError marks a record whose last_login could not be parsed as a
// calendar date. The batch continues past it.
type InvalidDateError struct {
	Email string
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid last_login date %q for %s", e.Value, e.Email)
}

// Enrichment is the per-record result of the enrichment stage. Either
// Enriched is populated or Err is set; Source always carries the input
// record so downstream reporting never loses a validated record.
type Enrichment struct {
	Enriched EnrichedRecord
	Source   Record
	Err      error
}

// Enricher computes days_inactive and the engagement tier for each record
// against an explicit reference date. The reference date is always passed
// in, never taken from the wall clock, so the stage stays deterministic.
type Enricher struct {
	today time.Time
}

// NewEnricher creates an Enricher for the given reference date. Only the
// calendar day matters; the time of day is discarded.
func NewEnricher(today time.Time) *Enricher {
	y, m, d := today.Date()
	return &Enricher{today: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Enrich processes records in order, producing one Enrichment per input.
// A parse failure never aborts the batch.
func (e *Enricher) Enrich(records []Record) []Enrichment {
	results := make([]Enrichment, 0, len(records))
	for _, rec := range records {
		results = append(results, e.enrichOne(rec))
	}
	return results
}

func (e *Enricher) enrichOne(rec Record) Enrichment {
	lastLogin, err := time.ParseInLocation(dateLayout, rec[FieldLastLogin], time.UTC)
	if err != nil {
		return Enrichment{
			Source: rec,
			Err:    &InvalidDateError{Email: rec[FieldEmail], Value: rec[FieldLastLogin]},
		}
	}

	days := int(e.today.Sub(lastLogin).Hours() / 24)
	return Enrichment{
		Enriched: EnrichedRecord{
			Record:       rec.Clone(),
			DaysInactive: days,
			Status:       StatusFor(days),
		},
		Source: rec,
	}
}

// StatusFor maps days of inactivity to an engagement tier. Zero and
// negative values (last_login today or in the future) classify as active;
// the ranges are closed and non-overlapping.
func StatusFor(days int) Status {
	switch {
	case days <= 2:
		return StatusActive
	case days <= 6:
		return StatusWarning
	case days <= 13:
		return StatusAtRisk
	default:
		return StatusEscalate
	}
}
