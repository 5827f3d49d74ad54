package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/meditrek/internal/model"
)

// Fields are the raw values extracted from one medication item.
type Fields struct {
	Name        string
	Form        string
	SideEffects string
}

// ExtractFields runs every field rule list against item.
func ExtractFields(item string) Fields {
	var f Fields
	f.Name, _ = ExtractField(item, FieldName)
	f.Form, _ = ExtractField(item, FieldForm)
	f.SideEffects, _ = ExtractField(item, FieldSideEffects)
	return f
}

// Assemble builds a recommendation from f. It reports false when the required
// name is missing.
func Assemble(f Fields, rank int) (model.MedicationRecommendation, bool) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.MedicationRecommendation{}, false
	}

	rec := model.MedicationRecommendation{
		Rank:          rank,
		Name:          name,
		SideEffects:   model.SideEffectsNotAvailable,
		PharmacyLinks: BuildSearchLinks(name),
	}
	if form := strings.TrimSpace(f.Form); form != "" {
		rec.MedicationType = &form
	}
	if se := strings.TrimSpace(f.SideEffects); se != "" {
		rec.SideEffects = se
	}
	return rec, true
}

// PharmacySite is a retailer whose product search accepts a free-text term.
type PharmacySite struct {
	Name        string
	URLTemplate string
}

// PharmacySites lists the sites BuildSearchLinks produces links for.
var PharmacySites = []PharmacySite{
	{Name: "cvs", URLTemplate: "https://www.cvs.com/search?searchTerm=%s"},
	{Name: "walgreens", URLTemplate: "https://www.walgreens.com/search/results.jsp?Ntt=%s"},
}

var (
	parenGroup    = regexp.MustCompile(`\([^)]*\)`)
	danglingParen = regexp.MustCompile(`\(.*$`)
	strengthWords = regexp.MustCompile(`(?i)extra[ \t]+strength|maximum[ \t]+strength|children'?s|infant'?s`)
)

// SearchTerm reduces a medication name to the product term used for pharmacy
// searches: parenthetical content and strength or age qualifiers are removed.
func SearchTerm(name string) string {
	term := parenGroup.ReplaceAllString(name, "")
	term = danglingParen.ReplaceAllString(term, "")
	term = strengthWords.ReplaceAllString(term, "")
	term = strings.TrimSpace(spaceRun.ReplaceAllString(term, " "))
	if term == "" {
		term = strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(name))
	}
	return term
}

// BuildSearchLinks maps each pharmacy site to a search URL for name.
func BuildSearchLinks(name string) map[string]string {
	encoded := strings.ReplaceAll(url.QueryEscape(SearchTerm(name)), "+", "%20")
	links := make(map[string]string, len(PharmacySites))
	for _, site := range PharmacySites {
		links[site.Name] = fmt.Sprintf(site.URLTemplate, encoded)
	}
	return links
}
