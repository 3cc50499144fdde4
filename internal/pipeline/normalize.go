package pipeline

import (
	"regexp"
	"strings"
)

// Normalizer converts raw spreadsheet rows into Records. Header cells are
// canonicalized (lowercase, punctuation and spaces collapsed to
// underscores) and mapped through an alias table, so "Last Login",
// "lastLogin" and "last_login" all land on the same key.
type Normalizer struct {
	aliases map[string]string
}

// DefaultAliases maps canonicalized header variants to the required field
// names.
func DefaultAliases() map[string]string {
	return map[string]string{
		"e_mail":        FieldEmail,
		"email_address": FieldEmail,
		"mail":          FieldEmail,
		"lastlogin":     FieldLastLogin,
		"last_log_in":   FieldLastLogin,
		"last_seen":     FieldLastLogin,
		"clientid":      FieldClientID,
		"client":        FieldClientID,
		"customer_id":   FieldClientID,
	}
}

// NewNormalizer creates a Normalizer. A nil alias table falls back to
// DefaultAliases.
func NewNormalizer(aliases map[string]string) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{aliases: aliases}
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// CanonicalizeKey lowercases a header cell and collapses runs of spaces and
// punctuation into single underscores. camelCase gets a separating
// underscore before the case change so "lastLogin" becomes "last_login".
func CanonicalizeKey(cell string) string {
	var b strings.Builder
	for i, r := range cell {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(cell[i-1])
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	key := strings.ToLower(b.String())
	key = nonKeyChars.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// positionalLabel returns spreadsheet-style column labels: A..Z, AA, AB, ...
func positionalLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// Normalize converts a header row plus data rows into ordered Records. A
// data row shorter than the header pads missing cells with empty strings;
// cells beyond the header are ignored. An empty header falls back to
// positional labels. Empty input yields an empty slice, never an error.
func (n *Normalizer) Normalize(header []string, rows [][]string) []Record {
	keys := n.headerKeys(header, rows)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(keys))
		for i, key := range keys {
			if i < len(row) {
				rec[key] = row[i]
			} else {
				rec[key] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// headerKeys resolves the field name for each column. With no usable header
// the widest data row determines how many positional labels are needed.
func (n *Normalizer) headerKeys(header []string, rows [][]string) []string {
	usable := false
	for _, cell := range header {
		if strings.TrimSpace(cell) != "" {
			usable = true
			break
		}
	}

	if !usable {
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}
		keys := make([]string, width)
		for i := range keys {
			keys[i] = positionalLabel(i)
		}
		return keys
	}

	keys := make([]string, len(header))
	for i, cell := range header {
		key := CanonicalizeKey(cell)
		if key == "" {
			key = positionalLabel(i)
		}
		if canonical, ok := n.aliases[key]; ok {
			key = canonical
		}
		keys[i] = key
	}
	return keys
}
