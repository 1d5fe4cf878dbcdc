package search

import (
	"strings"
	"unicode/utf8"
)

// Highlight returns a window of at most maxLen runes of content centred on the
// first occurrence of any query term, with ellipses where text was cut.
// Without a match the window starts at the beginning of content.
func Highlight(content, query string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	runes := []rune(content)
	lower := strings.ToLower(content)
	at := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len(term) < 3 {
			continue
		}
		if i := strings.Index(lower, term); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}
	start := 0
	if at > 0 {
		start = utf8.RuneCountInString(lower[:at]) - maxLen/4
		if start < 0 {
			start = 0
		}
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
		start = max(end-maxLen, 0)
	}
	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.TrimSpace(string(runes[start:end])))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}
