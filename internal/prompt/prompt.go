// Package prompt builds the backend prompts. Each prompt asks for exactly the
// layout the parse package understands.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/parse"
)

// formHint lists the dosage forms the backend should choose from.
const formHint = "pill/tablet, powder, liquid/gel, capsules, creams/ointments/lotions"

const noIntro = "Give the list without any introduction or closing remarks " +
	"(for example, do not start with \"Here is a list\" or \"Based on the information provided\")."

// Medications asks for limit ranked over-the-counter medications.
func Medications(p model.PatientProfile, limit int) string {
	p = p.Normalize()
	var b strings.Builder
	writeProfile(&b, p)
	writeMedicationRequest(&b, limit)
	b.WriteString(noIntro)
	return b.String()
}

// Management asks for numbered DO and DON'T lists of up to limit items each.
func Management(symptoms []string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have the following symptoms: %s. ", strings.Join(model.CleanSymptoms(symptoms), ", "))
	writeListRequest(&b, limit)
	b.WriteString(noIntro)
	return b.String()
}

// Combined asks for medications and management lists in one response,
// separated by a line containing only the management marker.
func Combined(p model.PatientProfile, medicationLimit, listLimit int) string {
	p = p.Normalize()
	var b strings.Builder
	writeProfile(&b, p)
	b.WriteString("Answer in two sections.\n\n")

	fmt.Fprintf(&b, "First, on its own line write %s and then: ", parse.MedicationsHeader)
	writeMedicationRequest(&b, medicationLimit)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Second, on its own line write %s and then: ", parse.ManagementMarker)
	writeListRequest(&b, listLimit)
	b.WriteString("\n\n")

	b.WriteString(noIntro)
	return b.String()
}

func writeProfile(b *strings.Builder, p model.PatientProfile) {
	fmt.Fprintf(b, "I'm %s and %s years old. ", p.Gender, p.Age)
	fmt.Fprintf(b, "I'm allergic to %s. ", p.Allergies)
	fmt.Fprintf(b, "I have the following symptoms: %s. ", strings.Join(p.Symptoms, ", "))
}

func writeMedicationRequest(b *strings.Builder, limit int) {
	if limit <= 0 {
		limit = parse.DefaultMedicationLimit
	}
	fmt.Fprintf(b, "Please recommend exactly %d over-the-counter medications that would help, ", limit)
	fmt.Fprintf(b, "ranked by effectiveness (%s). ", ordinalChoices(limit))
	fmt.Fprintf(b, "Number each medication (1., 2., ...) and for each one provide, on separate lines: "+
		"Brand name: <name>, Type of medication: <one of %s>, Side effects: <common side effects>. ", formHint)
}

func writeListRequest(b *strings.Builder, limit int) {
	if limit <= 0 {
		limit = parse.DefaultSplitListLimit
	}
	fmt.Fprintf(b, "Suggest up to %d things I should do and up to %d things I should avoid to manage these symptoms. ", limit, limit)
	b.WriteString("Write a line containing only DO: followed by a numbered list (1., 2., ...), " +
		"then a line containing only DON'T: followed by a numbered list. " +
		"Keep every item to one short sentence. ")
}

// ordinalChoices renders "1st, 2nd, and 3rd choice" for n = 3.
func ordinalChoices(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = Ordinal(i + 1)
	}
	switch n {
	case 1:
		return words[0] + " choice"
	case 2:
		return words[0] + " and " + words[1] + " choice"
	default:
		return strings.Join(words[:n-1], ", ") + ", and " + words[n-1] + " choice"
	}
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th, 11th, 21st and so on.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
