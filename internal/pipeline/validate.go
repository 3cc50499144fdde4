package pipeline

import "strings"

// Validate keeps only records where every required field is present and
// non-blank after trimming. Exclusion is all-or-nothing per record and
// silent; order is preserved. Zero survivors is not an error.
func Validate(records []Record, required []string) []Record {
	valid := make([]Record, 0, len(records))
	for _, rec := range records {
		if hasRequired(rec, required) {
			valid = append(valid, rec)
		}
	}
	return valid
}

func hasRequired(rec Record, required []string) bool {
	for _, field := range required {
		val, ok := rec[field]
		if !ok || strings.TrimSpace(val) == "" {
			return false
		}
	}
	return true
}
