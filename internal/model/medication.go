package model

// SideEffectsNotAvailable is the side-effect text used when a response does
// not describe any.
const SideEffectsNotAvailable = "Not available"

// MedicationRecommendation is one over-the-counter medication suggested by the
// backend, in the order the backend ranked it.
type MedicationRecommendation struct {
	Rank           int               `json:"rank" yaml:"rank"`
	Name           string            `json:"name" yaml:"name"`
	MedicationType *string           `json:"medication_type" yaml:"medication_type"`
	SideEffects    string            `json:"side_effects" yaml:"side_effects"`
	PharmacyLinks  map[string]string `json:"pharmacy_links" yaml:"pharmacy_links"`
}

// ManagementLists holds the do / do-not actions suggested for a set of symptoms.
type ManagementLists struct {
	ToDoList  []string `json:"to_do_list" yaml:"to_do_list"`
	DoNotList []string `json:"do_not_list" yaml:"do_not_list"`
}

// EmptyManagementLists returns lists with non-nil, empty slices so they
// serialize as [] rather than null.
func EmptyManagementLists() ManagementLists {
	return ManagementLists{ToDoList: []string{}, DoNotList: []string{}}
}

// IsEmpty reports whether neither list has any items.
func (m ManagementLists) IsEmpty() bool {
	return len(m.ToDoList) == 0 && len(m.DoNotList) == 0
}

// CombinedRecommendation is the result of a single combined query.
type CombinedRecommendation struct {
	Medications []MedicationRecommendation `json:"medications" yaml:"medications"`
	Management  ManagementLists            `json:"management" yaml:"management"`
}

// IsEmpty reports whether nothing could be extracted.
func (c CombinedRecommendation) IsEmpty() bool {
	return len(c.Medications) == 0 && c.Management.IsEmpty()
}
