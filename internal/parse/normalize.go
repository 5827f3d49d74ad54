package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	citationPattern = regexp.MustCompile(`\[\d+\]`)
	strongPattern   = regexp.MustCompile(`\*\*|__`)
	headingPattern  = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	trailingSpace   = regexp.MustCompile(`(?m)[ \t]+$`)
)

var punctuationReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"•", "-",
	"`", "",
	"*", "",
)

// Normalize strips markup noise from raw response text: emphasis markers,
// heading hashes, code ticks and bracketed citations. Typographic quotes and
// dashes are folded to ASCII so label patterns match. Line structure and
// leading indentation are preserved.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strongPattern.ReplaceAllString(text, "")
	text = punctuationReplacer.Replace(text)
	text = citationPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = trailingSpace.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
