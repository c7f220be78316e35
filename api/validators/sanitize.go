package validators

import "strings"

// SanitizeString collapses runs of whitespace and truncates to maxLen runes.
// A maxLen of zero disables truncation.
func SanitizeString(input string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
