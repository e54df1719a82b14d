package validators

import "strings"

// SanitizeString trims whitespace and clamps the value to maxLen bytes.
// Every query param and JSON string field passes through here before it
// reaches a service.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
