package pipeline

import (
	"reflect"
	"testing"
)

func TestCanonicalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Email", "email"},
		{"Last Login", "last_login"},
		{"lastLogin", "last_login"},
		{"LastLogin", "last_login"},
		{"Client ID", "client_id"},
		{"ClientID", "client_id"},
		{"  Days  Inactive!  ", "days_inactive"},
		{"e-mail", "e_mail"},
		{"signup.date", "signup_date"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalizeKey(tt.in); got != tt.want {
				t.Errorf("CanonicalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPositionalLabel(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}

	for _, tt := range tests {
		if got := positionalLabel(tt.in); got != tt.want {
			t.Errorf("positionalLabel(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAliases(t *testing.T) {
	n := NewNormalizer(nil)

	headers := [][]string{
		{"Email", "Last Login", "Client ID"},
		{"email", "lastLogin", "clientId"},
		{"E-Mail", "LastLogin", "ClientID"},
		{"email_address", "last_log_in", "customer_id"},
	}

	for _, header := range headers {
		records := n.Normalize(header, [][]string{{"a@x.com", "2025-11-20", "C1"}})
		if len(records) != 1 {
			t.Fatalf("header %v: got %d records, want 1", header, len(records))
		}
		rec := records[0]
		for _, field := range RequiredFields {
			if _, ok := rec[field]; !ok {
				t.Errorf("header %v: missing canonical field %q in %v", header, field, rec)
			}
		}
		if rec[FieldEmail] != "a@x.com" || rec[FieldLastLogin] != "2025-11-20" || rec[FieldClientID] != "C1" {
			t.Errorf("header %v: wrong values %v", header, rec)
		}
	}
}

func TestNormalizeUnmappedColumnsKept(t *testing.T) {
	n := NewNormalizer(nil)

	records := n.Normalize(
		[]string{"Email", "Last Login", "Client ID", "Plan Tier"},
		[][]string{{"a@x.com", "2025-11-20", "C1", "gold"}},
	)

	want := Record{
		"email":      "a@x.com",
		"last_login": "2025-11-20",
		"client_id":  "C1",
		"plan_tier":  "gold",
	}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("got %v, want %v", records[0], want)
	}
}

func TestNormalizeShortRowsPadded(t *testing.T) {
	n := NewNormalizer(nil)

	records := n.Normalize(
		[]string{"Email", "Last Login", "Client ID"},
		[][]string{{"a@x.com", "2025-11-20"}},
	)

	if records[0][FieldClientID] != "" {
		t.Errorf("missing trailing cell should map to empty string, got %q", records[0][FieldClientID])
	}
}

func TestNormalizeExtraCellsIgnored(t *testing.T) {
	n := NewNormalizer(nil)

	records := n.Normalize(
		[]string{"Email"},
		[][]string{{"a@x.com", "stray"}},
	)

	if len(records[0]) != 1 {
		t.Errorf("cells beyond the header should be ignored, got %v", records[0])
	}
}

func TestNormalizeEmptyHeaderUsesPositionalLabels(t *testing.T) {
	n := NewNormalizer(nil)

	records := n.Normalize(nil, [][]string{{"a@x.com", "2025-11-20", "C1"}})

	want := Record{"A": "a@x.com", "B": "2025-11-20", "C": "C1"}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("got %v, want %v", records[0], want)
	}

	// Blank header cells behave the same as no header
	records = n.Normalize([]string{"", "  "}, [][]string{{"x", "y"}})
	if records[0]["A"] != "x" || records[0]["B"] != "y" {
		t.Errorf("blank header should fall back to positional labels, got %v", records[0])
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(nil)

	records := n.Normalize(nil, nil)
	if len(records) != 0 {
		t.Errorf("empty input should produce an empty sequence, got %v", records)
	}
}

func TestNormalizePreservesRowOrder(t *testing.T) {
	n := NewNormalizer(nil)

	rows := [][]string{
		{"a@x.com", "2025-11-20", "C1"},
		{"b@x.com", "2025-11-21", "C2"},
		{"c@x.com", "2025-11-22", "C3"},
	}
	records := n.Normalize([]string{"Email", "Last Login", "Client ID"}, rows)

	for i, row := range rows {
		if records[i][FieldEmail] != row[0] {
			t.Errorf("record %d: got %q, want %q", i, records[i][FieldEmail], row[0])
		}
	}
}
