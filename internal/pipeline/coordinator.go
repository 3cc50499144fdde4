package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linuxmathew/customer-success-workflow/internal/pkg/logger"
)

// Fetcher retrieves raw spreadsheet rows. The first row is expected to be
// the header.
type Fetcher interface {
	BatchGetValues(ctx context.Context, spreadsheetID string, ranges []string) ([][]string, error)
}

// FetchError is the only pipeline-fatal condition: the upstream data source
// was unavailable or malformed. No summary is produced.
type FetchError struct {
	SpreadsheetID string
	Err           error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching spreadsheet %s: %v", e.SpreadsheetID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Pipeline sequences fetch, normalize, validate, enrich and dispatch over
// one batch, producing a RunSummary. Each invocation is self-contained; no
// state crosses runs.
type Pipeline struct {
	fetcher    Fetcher
	normalizer *Normalizer
	dispatcher *Dispatcher
	required   []string
}

// New assembles a Pipeline. The dispatcher must be non-nil; fetcher may be
// nil only when Run is bypassed in favor of RunRows.
func New(fetcher Fetcher, dispatcher *Dispatcher) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: NewNormalizer(nil),
		dispatcher: dispatcher,
		required:   RequiredFields,
	}
}

// Run fetches the spreadsheet and processes the batch for the given
// reference date. A fetch failure returns a *FetchError and no summary;
// every later stage absorbs per-record failures into the summary instead.
func (p *Pipeline) Run(ctx context.Context, spreadsheetID string, ranges []string, today time.Time) (*RunSummary, error) {
	rows, err := p.fetcher.BatchGetValues(ctx, spreadsheetID, ranges)
	if err != nil {
		return nil, &FetchError{SpreadsheetID: spreadsheetID, Err: err}
	}

	summary := p.RunRows(ctx, rows, today)
	summary.SpreadsheetID = spreadsheetID
	return summary, nil
}

// RunRows processes already-fetched rows (header first) for the given
// reference date. Zero rows produce an empty summary, not an error.
func (p *Pipeline) RunRows(ctx context.Context, rows [][]string, today time.Time) *RunSummary {
	summary := &RunSummary{
		RunID:         uuid.New().String(),
		ReferenceDate: today.Format(dateLayout),
		StartedAt:     time.Now().UTC(),
		Outcomes:      []DispatchOutcome{},
	}
	summary.Counts.FetchedRows = len(rows)

	var header []string
	var data [][]string
	if len(rows) > 0 {
		header = rows[0]
		data = rows[1:]
	}

	records := p.normalizer.Normalize(header, data)
	valid := Validate(records, p.required)
	summary.Counts.Normalized = len(records)
	summary.Counts.Validated = len(valid)

	logger.Info("pipeline stages complete",
		"run_id", summary.RunID,
		"rows", len(rows), "normalized", len(records), "validated", len(valid))

	enrichments := NewEnricher(today).Enrich(valid)

	// Dispatch only cleanly enriched records; invalid-date records are
	// folded back into the summary below so no validated record is lost.
	enriched := make([]EnrichedRecord, 0, len(enrichments))
	for _, en := range enrichments {
		if en.Err == nil {
			enriched = append(enriched, en.Enriched)
		}
	}

	dispatched := p.dispatcher.Dispatch(ctx, enriched)
	summary.Partial = len(dispatched) < len(enriched)

	// Merge dispatch outcomes and enrichment failures back into validated
	// input order.
	next := 0
	for _, en := range enrichments {
		if en.Err != nil {
			summary.Counts.InvalidDates++
			summary.Outcomes = append(summary.Outcomes, DispatchOutcome{
				Email:        en.Source[FieldEmail],
				ClientID:     en.Source[FieldClientID],
				ChosenAction: ActionNone,
				Error:        en.Err.Error(),
				Timestamp:    time.Now().UTC(),
			})
			continue
		}
		if next >= len(dispatched) {
			break
		}
		summary.Outcomes = append(summary.Outcomes, dispatched[next])
		next++
	}

	counts := tally(summary.Outcomes)
	counts.FetchedRows = summary.Counts.FetchedRows
	counts.Normalized = summary.Counts.Normalized
	counts.Validated = summary.Counts.Validated
	counts.InvalidDates = summary.Counts.InvalidDates
	summary.Counts = counts

	summary.CompletedAt = time.Now().UTC()
	logger.Info("pipeline run complete",
		"run_id", summary.RunID,
		"outcomes", len(summary.Outcomes),
		"reminders", summary.Counts.Reminders,
		"check_ins", summary.Counts.CheckIns,
		"escalations", summary.Counts.Escalations,
		"failures", summary.Counts.Failures)

	return summary
}
