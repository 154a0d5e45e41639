package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at
// maxLen runes. Item names arrive from vendor dashboards and may contain
// multi-byte characters, so truncation counts runes rather than bytes to
// avoid storing a split code point. maxLen <= 0 disables the cap.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
