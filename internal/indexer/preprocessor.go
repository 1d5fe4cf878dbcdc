package indexer

import (
	"regexp"
	"strings"
	"unicode"
)

// hyphenBreak matches a word split across lines by a trailing hyphen.
var hyphenBreak = regexp.MustCompile(`(\p{L})-\n\s*(\p{L})`)

// Preprocess normalizes extracted PDF text for chunking: words hyphenated across
// line breaks are rejoined, control characters dropped and whitespace collapsed.
func Preprocess(text string) string {
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		case unicode.IsControl(r), r == '\u00ad', r == unicode.ReplacementChar:
			continue
		default:
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
