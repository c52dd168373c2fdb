// Package labels derives BigQuery job labels and merges label sets.
package labels

import (
	"fmt"
	"regexp"
	"strings"
)

// maxLength is the BigQuery limit for label keys and values.
const maxLength = 63

var (
	keyPattern   = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	valuePattern = regexp.MustCompile(`^[a-z0-9_-]*$`)
)

// Derive converts a human-readable query label into a job label value:
// surrounding whitespace is trimmed, internal spaces become hyphens and
// the result is lowercased.
//
//	Derive(" My Query ") == "my-query"
func Derive(label string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "-"))
}

// Merge returns a new map holding base plus key=value.
// base is never modified; an existing key is overwritten in the copy.
func Merge(base map[string]string, key, value string) map[string]string {
	merged := make(map[string]string, len(base)+1)
	for k, v := range base {
		merged[k] = v
	}
	merged[key] = value
	return merged
}

// Clone returns a copy of m. A nil map yields an empty, non-nil map.
func Clone(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidateKey checks a label key against the BigQuery label rules.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("label key is empty")
	}
	if len(key) > maxLength {
		return fmt.Errorf("label key %q exceeds %d characters", key, maxLength)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("label key %q must start with a lowercase letter and contain only lowercase letters, digits, '_' or '-'", key)
	}
	return nil
}

// ValidateValue checks a label value against the BigQuery label rules.
func ValidateValue(value string) error {
	if len(value) > maxLength {
		return fmt.Errorf("label value %q exceeds %d characters", value, maxLength)
	}
	if !valuePattern.MatchString(value) {
		return fmt.Errorf("label value %q may contain only lowercase letters, digits, '_' or '-'", value)
	}
	return nil
}

// Validate checks every key and value in m.
func Validate(m map[string]string) error {
	for k, v := range m {
		if err := ValidateKey(k); err != nil {
			return err
		}
		if err := ValidateValue(v); err != nil {
			return fmt.Errorf("label %q: %w", k, err)
		}
	}
	return nil
}
