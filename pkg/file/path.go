package file

import (
	"regexp"
	"strings"
)

var (
	unsafePathChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	nonWordChars    = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	separatorRuns   = regexp.MustCompile(`[-\s]+`)
)

// SafeBaseName strips characters that are illegal or surprising in file
// names and truncates the result to maxLen runes. Used to derive artifact
// names from news titles.
func SafeBaseName(title string, maxLen int) string {
	cleaned := unsafePathChars.ReplaceAllString(title, "")
	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}

// SafeSlug reduces text to a short underscore-joined slug for TTS artifact
// names: non-word characters removed, whitespace and hyphen runs collapsed
// to single underscores, truncated to maxLen runes.
func SafeSlug(text string, maxLen int) string {
	cleaned := nonWordChars.ReplaceAllString(strings.TrimSpace(text), "")
	cleaned = separatorRuns.ReplaceAllString(cleaned, "_")
	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return strings.Trim(string(runes), "_")
}
