package pipeline

import (
	"errors"
	"testing"
	"time"
)

func refDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		days int
		want Status
	}{
		{-1, StatusActive},
		{0, StatusActive},
		{1, StatusActive},
		{2, StatusActive},
		{3, StatusWarning},
		{4, StatusWarning},
		{6, StatusWarning},
		{7, StatusAtRisk},
		{10, StatusAtRisk},
		{13, StatusAtRisk},
		{14, StatusEscalate},
		{20, StatusEscalate},
		{365, StatusEscalate},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.days); got != tt.want {
			t.Errorf("StatusFor(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestEnrichDaysInactive(t *testing.T) {
	tests := []struct {
		name      string
		today     string
		lastLogin string
		wantDays  int
		wantTier  Status
	}{
		{"three days", "2025-12-01", "2025-11-28", 3, StatusWarning},
		{"same day", "2025-12-01", "2025-12-01", 0, StatusActive},
		{"future login", "2025-12-01", "2025-12-03", -2, StatusActive},
		{"two weeks", "2025-12-01", "2025-11-17", 14, StatusEscalate},
		{"across month boundary", "2025-12-05", "2025-10-15", 51, StatusEscalate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec[FieldLastLogin] = tt.lastLogin

			results := NewEnricher(refDate(tt.today)).Enrich([]Record{rec})
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}
			en := results[0]
			if en.Err != nil {
				t.Fatalf("unexpected error: %v", en.Err)
			}
			if en.Enriched.DaysInactive != tt.wantDays {
				t.Errorf("DaysInactive = %d, want %d", en.Enriched.DaysInactive, tt.wantDays)
			}
			if en.Enriched.Status != tt.wantTier {
				t.Errorf("Status = %s, want %s", en.Enriched.Status, tt.wantTier)
			}
		})
	}
}

func TestEnrichInvalidDateDoesNotAbortBatch(t *testing.T) {
	good := validRecord()
	bad := validRecord()
	bad[FieldEmail] = "bad@x.com"
	bad[FieldLastLogin] = "not-a-date"

	results := NewEnricher(refDate("2025-12-01")).Enrich([]Record{good, bad})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("good record failed: %v", results[0].Err)
	}

	var invalid *InvalidDateError
	if !errors.As(results[1].Err, &invalid) {
		t.Fatalf("expected *InvalidDateError, got %v", results[1].Err)
	}
	if invalid.Email != "bad@x.com" || invalid.Value != "not-a-date" {
		t.Errorf("error details = %+v", invalid)
	}
	if results[1].Source[FieldEmail] != "bad@x.com" {
		t.Errorf("failed enrichment should keep its source record")
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	rec := validRecord()
	results := NewEnricher(refDate("2025-12-01")).Enrich([]Record{rec})

	results[0].Enriched.Record["tampered"] = "yes"
	if _, ok := rec["tampered"]; ok {
		t.Errorf("enrichment must not share the input map")
	}
}

func TestEnrichIgnoresTimeOfDay(t *testing.T) {
	rec := validRecord()
	rec[FieldLastLogin] = "2025-11-28"

	late := time.Date(2025, 12, 1, 23, 59, 0, 0, time.UTC)
	results := NewEnricher(late).Enrich([]Record{rec})
	if results[0].Enriched.DaysInactive != 3 {
		t.Errorf("DaysInactive = %d, want 3", results[0].Enriched.DaysInactive)
	}
}
