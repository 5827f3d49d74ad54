package parse

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Section markers used by the combined prompt.
const (
	ManagementMarker  = "MANAGEMENT:"
	MedicationsHeader = "MEDICATIONS:"
)

var (
	// ErrSectionNotFound means the split marker line is missing.
	ErrSectionNotFound = eris.New("parse: section marker not found")
	// ErrSectionAmbiguous means the split marker line appears more than once.
	ErrSectionAmbiguous = eris.New("parse: section marker is ambiguous")
)

var (
	choiceMarker = regexp.MustCompile(`(?i)^(?:\d+[.)][ \t]*)?(?:\d+(?:st|nd|rd|th)[ \t]+choice\b|choice[ \t]*\d+\b)[ \t]*[:.)\-]?[ \t]*`)
	numberMarker = regexp.MustCompile(`^\d+[.)](?:[ \t]+|$)`)
	blankRun     = regexp.MustCompile(`\n[ \t]*\n\s*`)
)

// SplitSections divides text at the line whose trimmed content equals marker
// (ASCII case-insensitive). The marker must appear exactly once; otherwise both
// sections are empty and ErrSectionNotFound or ErrSectionAmbiguous is
// returned. A leading MEDICATIONS: header is dropped from the primary section.
func SplitSections(text, marker string) (string, string, error) {
	lines := strings.Split(text, "\n")
	at, count := -1, 0
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), marker) {
			if at < 0 {
				at = i
			}
			count++
		}
	}

	switch {
	case count == 0:
		return "", "", ErrSectionNotFound
	case count > 1:
		return "", "", ErrSectionAmbiguous
	}

	primary := dropHeader(strings.Join(lines[:at], "\n"), MedicationsHeader)
	secondary := strings.TrimSpace(strings.Join(lines[at+1:], "\n"))
	return primary, secondary, nil
}

// dropHeader removes header when it is the first non-blank line of section.
func dropHeader(section, header string) string {
	section = strings.TrimSpace(section)
	first, rest, _ := strings.Cut(section, "\n")
	if strings.EqualFold(strings.TrimSpace(first), header) {
		return strings.TrimSpace(rest)
	}
	return section
}

// SplitItems divides a section into numbered items. Items start at unindented
// lines carrying an ordinal marker: "1st choice", "choice 2:" or, when no
// ordinal-word marker is present, "1." / "1)". Without any marker, blank lines
// separate items. Marker text and anything before the first marker are
// discarded. A positive limit caps the number of items returned.
func SplitItems(section string, limit int) []string {
	lines := strings.Split(section, "\n")

	var marker *regexp.Regexp
	for _, candidate := range []*regexp.Regexp{choiceMarker, numberMarker} {
		if anyLineMatches(lines, candidate) {
			marker = candidate
			break
		}
	}

	var items []string
	if marker == nil {
		items = splitOnBlankLines(section)
	} else {
		items = splitOnMarker(lines, marker)
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func anyLineMatches(lines []string, re *regexp.Regexp) bool {
	for _, line := range lines {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func splitOnMarker(lines []string, marker *regexp.Regexp) []string {
	items := []string{}
	var current []string
	started := false

	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			items = append(items, text)
		}
		current = nil
	}

	for _, line := range lines {
		if loc := marker.FindStringIndex(line); loc != nil {
			if started {
				flush()
			}
			started = true
			current = append(current, line[loc[1]:])
			continue
		}
		if started {
			current = append(current, line)
		}
	}
	if started {
		flush()
	}
	return items
}

func splitOnBlankLines(section string) []string {
	items := []string{}
	for _, chunk := range blankRun.Split(section, -1) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			items = append(items, chunk)
		}
	}
	return items
}
