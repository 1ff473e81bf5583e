package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// ValidateRequestID checks a caller supplied X-Request-ID before it reaches logs or object keys.
func ValidateRequestID(id string) error {
	if id == "" {
		return fmt.Errorf("request ID cannot be empty")
	}
	if !requestIDPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid request ID format (alphanumeric, dot, dash, underscore only, max 64 chars)")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps a result count to [1, max], using def when unset.
func ValidateLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
