package model

import "strings"

// Defaults applied to optional profile fields, matching what the intake form
// submits when a field is left blank.
const (
	DefaultGender    = "not specified"
	DefaultAge       = "not specified"
	DefaultAllergies = "none"
)

// PatientProfile is the caller-supplied input for a recommendation query.
type PatientProfile struct {
	Symptoms  []string `json:"symptoms" yaml:"symptoms"`
	Gender    string   `json:"gender" yaml:"gender"`
	Age       string   `json:"age" yaml:"age"`
	Allergies string   `json:"allergies" yaml:"allergies"`
}

// Normalize trims every field, drops blank symptoms and fills defaults for
// blank demographic fields.
func (p PatientProfile) Normalize() PatientProfile {
	out := PatientProfile{
		Symptoms:  CleanSymptoms(p.Symptoms),
		Gender:    strings.TrimSpace(p.Gender),
		Age:       strings.TrimSpace(p.Age),
		Allergies: strings.TrimSpace(p.Allergies),
	}
	if out.Gender == "" {
		out.Gender = DefaultGender
	}
	if out.Age == "" {
		out.Age = DefaultAge
	}
	if out.Allergies == "" {
		out.Allergies = DefaultAllergies
	}
	return out
}

// ParseSymptoms splits a comma-separated symptom string.
func ParseSymptoms(csv string) []string {
	return CleanSymptoms(strings.Split(csv, ","))
}

// CleanSymptoms trims each symptom and removes empty entries.
func CleanSymptoms(symptoms []string) []string {
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
