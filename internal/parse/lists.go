package parse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Label identifies a list block by the header line that introduces it.
type Label struct {
	Name    string
	pattern *regexp.Regexp
}

// NewLabel builds a Label matching any of headers when it sits alone on a
// line, ignoring ASCII case and surrounding whitespace.
func NewLabel(name string, headers ...string) Label {
	quoted := make([]string, len(headers))
	for i, h := range headers {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return Label{
		Name:    name,
		pattern: regexp.MustCompile(`(?i)^[ \t]*(?:` + strings.Join(quoted, "|") + `)[ \t]*$`),
	}
}

// Matches reports whether line is this label's header.
func (l Label) Matches(line string) bool {
	return l.pattern != nil && l.pattern.MatchString(line)
}

var (
	// DoLabel introduces the list of recommended actions.
	DoLabel = NewLabel("do", "DO:", "TO DO:", "TO-DO:", "TO-DO LIST:", "TO DO LIST:")
	// DontLabel introduces the list of actions to avoid.
	DontLabel = NewLabel("dont", "DON'T:", "DONT:", "DO NOT:", "DO-NOT:", "DO-NOT LIST:", "DO NOT LIST:")
)

var (
	numberedLine       = regexp.MustCompile(`^[ \t]*\d+[.)][ \t]+(\S.*)$`)
	disallowedListChar = regexp.MustCompile(`[^\p{L}\p{N}_\s.,()\-]`)
)

// ExtractList returns the cleaned numbered lines that follow label in section.
// Blank lines between items are skipped; the block ends at the first line that
// is neither blank nor numbered. A positive limit caps the result. A missing
// label yields an empty slice and a warning.
func ExtractList(section string, label Label, limit int) []string {
	items := []string{}

	lines := strings.Split(section, "\n")
	start := -1
	for i, line := range lines {
		if label.Matches(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		zap.L().Warn("parse: list label not found", zap.String("label", label.Name))
		return items
	}

	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			break
		}
		if item := CleanListItem(m[1]); item != "" {
			items = append(items, item)
		}
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	if len(items) == 0 {
		zap.L().Warn("parse: list label has no numbered items", zap.String("label", label.Name))
	}
	return items
}

// CleanListItem removes citation markers and any character outside word
// characters, whitespace and . , ( ) -.
func CleanListItem(s string) string {
	s = citationPattern.ReplaceAllString(s, "")
	s = disallowedListChar.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
