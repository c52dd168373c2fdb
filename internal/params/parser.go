package params

import (
	"fmt"
	"strings"
)

// ParseKeyValuePairs converts a slice of "key=value" strings into a map.
// Keys are trimmed; values are kept as given.
//
// Example:
//
//	lbls, err := ParseKeyValuePairs([]string{"team=variants", "env=prod"})
//	// Returns: map[string]string{"team": "variants", "env": "prod"}
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("label %q is not in key=value format (example: --labels team=variants)", pair)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("label has empty key: %q", pair)
		}

		result[key] = value
	}

	return result, nil
}
