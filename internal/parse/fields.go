package parse

import (
	"regexp"
	"strings"
)

// FieldKind selects which rule list ExtractField evaluates.
type FieldKind int

const (
	FieldName FieldKind = iota
	FieldForm
	FieldSideEffects
)

func (k FieldKind) String() string {
	switch k {
	case FieldName:
		return "name"
	case FieldForm:
		return "form"
	case FieldSideEffects:
		return "side_effects"
	default:
		return "unknown"
	}
}

// Rule is a named label pattern. The value is the pattern's first capture
// group, or the whole match when the pattern has no groups. Continuation
// rules also absorb the indented lines that immediately follow the match.
// A value matching Reject is treated as no match.
type Rule struct {
	Name         string
	Pattern      *regexp.Regexp
	Continuation bool
	Reject       *regexp.Regexp
}

// linePrefix allows a bullet or sub-number before a label at line start.
const linePrefix = `(?im)^[ \t]*(?:[-+][ \t]*)?(?:\d+[.)][ \t]*)?`

func labelRule(name, label string) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(linePrefix + label + `[ \t]*:[ \t]*(\S[^\n]*)$`),
	}
}

// NameRules are tried in order to find a medication name.
var NameRules = []Rule{
	labelRule("brand_name", `brand[ \t]+names?`),
	labelRule("medication", `medication(?:[ \t]+name)?`),
	labelRule("name", `name`),
	{
		Name:    "leading_phrase",
		Pattern: regexp.MustCompile(`\A[ \t]*([^:\n]+?)[ \t]*(?::|\n|\z)`),
		Reject:  fieldLabel,
	},
}

// fieldLabel matches the labels that introduce a field value rather than a name.
var fieldLabel = regexp.MustCompile(`(?i)^(?:brand[ \t]+names?|medication(?:[ \t]+(?:name|type))?|name|` +
	`type(?:[ \t]+of[ \t]+medication)?|(?:dosage[ \t]+)?form|side[ \t]+effects?|adverse[ \t]+effects|` +
	`warnings?|(?:may|can)[ \t]+cause)$`)

// FormRules are tried in order to find a dosage form.
var FormRules = []Rule{
	labelRule("type_of_medication", `(?:type[ \t]+of[ \t]+medication|medication[ \t]+type)`),
	labelRule("form", `(?:dosage[ \t]+)?form`),
	labelRule("type", `type`),
	{Name: "form_keyword", Pattern: regexp.MustCompile(`(?i)\b(?:pill|tablet|liquid|gel|capsule|cream|ointment|lotion|powder)s?\b`)},
}

// SideEffectRules are tried in order to find side-effect text.
var SideEffectRules = []Rule{
	{Name: "side_effects", Pattern: regexp.MustCompile(`(?i)side[ \t]+effects?[ \t]*:[ \t]*([^\n]*)`), Continuation: true},
	{Name: "side_effects_phrase", Pattern: regexp.MustCompile(`(?i)side[ \t]+effects?[^:\n]*?\b(?:include|are)\b[ \t]*:?[ \t]*([^\n]*)`), Continuation: true},
	{Name: "adverse_effects", Pattern: regexp.MustCompile(`(?i)(?:adverse[ \t]+effects|warnings?)[ \t]*:[ \t]*([^\n]*)`), Continuation: true},
	{Name: "may_cause", Pattern: regexp.MustCompile(`(?i)(?:may|can)[ \t]+cause[ \t]*:[ \t]*([^\n]*)`), Continuation: true},
}

// RulesFor returns the ordered rule list for kind.
func RulesFor(kind FieldKind) []Rule {
	switch kind {
	case FieldName:
		return NameRules
	case FieldForm:
		return FormRules
	case FieldSideEffects:
		return SideEffectRules
	default:
		return nil
	}
}

var (
	labelLine  = regexp.MustCompile(`^[ \t]*(?:[-+][ \t]*)?[A-Za-z][A-Za-z' /]{0,40}:`)
	spaceRun   = regexp.MustCompile(`\s+`)
	bulletTrim = "-+ \t"
)

// ExtractField returns the value of the first rule for kind that matches item.
func ExtractField(item string, kind FieldKind) (string, bool) {
	value, _, ok := ApplyRules(item, RulesFor(kind))
	if ok && kind == FieldName {
		value = cleanName(value)
		ok = value != ""
	}
	return value, ok
}

// ApplyRules evaluates rules in order and returns the first non-empty value
// along with the name of the rule that produced it.
func ApplyRules(item string, rules []Rule) (string, string, bool) {
	for _, r := range rules {
		if value, ok := r.Match(item); ok {
			return value, r.Name, true
		}
	}
	return "", "", false
}

// Match applies a single rule to item.
func (r Rule) Match(item string) (string, bool) {
	loc := r.Pattern.FindStringSubmatchIndex(item)
	if loc == nil {
		return "", false
	}

	var value string
	if len(loc) >= 4 && loc[2] >= 0 {
		value = item[loc[2]:loc[3]]
	} else {
		value = item[loc[0]:loc[1]]
	}

	if r.Reject != nil && r.Reject.MatchString(strings.TrimSpace(value)) {
		return "", false
	}

	sep := " "
	parts := []string{value}
	if r.Continuation {
		lines, bulleted := continuationLines(item[loc[1]:])
		if bulleted {
			sep = ", "
			parts = parts[:0]
			if v := strings.TrimRight(strings.TrimSpace(value), ","); v != "" {
				parts = append(parts, v)
			}
		}
		parts = append(parts, lines...)
	}

	value = cleanValue(strings.Join(parts, sep))
	return value, value != ""
}

// continuationLines collects the indented, non-label lines directly after a
// match. A blank line ends the run. bulleted reports that every line was a
// list item, in which case the lines come back without trailing commas.
func continuationLines(rest string) (lines []string, bulleted bool) {
	if !strings.HasPrefix(rest, "\n") {
		return nil, false
	}

	bulleted = true
	for _, line := range strings.Split(rest[1:], "\n") {
		if strings.TrimSpace(line) == "" || !startsIndented(line) || labelLine.MatchString(line) {
			break
		}
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "-") && !strings.HasPrefix(trimmed, "+") {
			bulleted = false
		}
		lines = append(lines, strings.TrimLeft(line, bulletTrim))
	}
	if len(lines) == 0 {
		return nil, false
	}
	if bulleted {
		for i, l := range lines {
			lines[i] = strings.TrimRight(strings.TrimSpace(l), ",")
		}
	}
	return lines, bulleted
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func cleanValue(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), bulletTrim)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// cleanName truncates a name at an opening parenthesis that is never closed,
// which happens when the backend output is cut off mid-name.
func cleanName(name string) string {
	var open []int
	for i, r := range name {
		switch r {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	if len(open) > 0 {
		name = name[:open[0]]
	}
	return strings.TrimRight(strings.TrimSpace(name), " -,:;")
}
