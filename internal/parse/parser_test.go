package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombined(t *testing.T) {
	t.Parallel()

	got, err := ParseCombined(combinedResponse, DefaultMedicationLimit, DefaultCombinedListLimit)
	require.NoError(t, err)
	require.Len(t, got.Medications, 3)

	wantNames := []string{"Tylenol Extra Strength (Acetaminophen)", "Advil (Ibuprofen)", "Robitussin DM"}
	wantForms := []string{"Tablet", "Capsule", "Liquid"}
	for i, med := range got.Medications {
		assert.Equal(t, i+1, med.Rank)
		assert.Equal(t, wantNames[i], med.Name)
		require.NotNil(t, med.MedicationType)
		assert.Equal(t, wantForms[i], *med.MedicationType)
	}

	assert.Equal(t, "Nausea, rash liver damage at high doses", got.Medications[0].SideEffects)
	assert.Equal(t, "Stomach upset", got.Medications[1].SideEffects)
	assert.Equal(t, "https://www.cvs.com/search?searchTerm=Tylenol", got.Medications[0].PharmacyLinks["cvs"])
	assert.Equal(t, "https://www.walgreens.com/search/results.jsp?Ntt=Robitussin%20DM", got.Medications[2].PharmacyLinks["walgreens"])

	assert.Equal(t, []string{"Rest as much as possible", "Drink plenty of fluids", "Use a humidifier"}, got.Management.ToDoList)
	assert.Equal(t, []string{"Smoke or be around smoke", "Drink alcohol", "Skip meals"}, got.Management.DoNotList)
}

func TestParseCombined_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := ParseCombined(combinedResponse, 3, 3)
	require.NoError(t, err)
	second, err := ParseCombined(Normalize(combinedResponse), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseCombined_MissingMarker(t *testing.T) {
	t.Parallel()

	got, err := ParseCombined(medicationOnlyResponse, 3, 3)
	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.Medications)
	assert.NotNil(t, got.Management.ToDoList)
	assert.NotNil(t, got.Management.DoNotList)

	// The medication parser alone still handles the same text.
	assert.Len(t, ParseMedications(medicationOnlyResponse, 3), 3)
}

func TestParseCombined_AmbiguousMarker(t *testing.T) {
	t.Parallel()

	text := "1. Brand name: Advil\nMANAGEMENT:\nDO:\n1. Rest\nMANAGEMENT:\nDON'T:\n1. Smoke"
	got, err := ParseCombined(text, 3, 3)
	assert.ErrorIs(t, err, ErrSectionAmbiguous)
	assert.True(t, got.IsEmpty())
}

func TestParseCombined_FewerItems(t *testing.T) {
	t.Parallel()

	text := "MEDICATIONS:\n1. Brand name: Advil\n\nMANAGEMENT:\nDO:\n1. Rest\nDON'T:\n1. Smoke\n2. Drink alcohol"
	got, err := ParseCombined(text, 3, 3)
	require.NoError(t, err)

	require.Len(t, got.Medications, 1)
	assert.Equal(t, "Advil", got.Medications[0].Name)
	assert.Equal(t, []string{"Rest"}, got.Management.ToDoList)
	assert.Equal(t, []string{"Smoke", "Drink alcohol"}, got.Management.DoNotList)
}

func TestParseCombined_UnnamedItemsSkipped(t *testing.T) {
	t.Parallel()

	text := "MEDICATIONS:\n1. Type: Tablet\n2. Side effects: nausea\nMANAGEMENT:\nDO:\n1. Rest\nDON'T:\n1. Smoke"
	got, err := ParseCombined(text, 3, 3)
	require.NoError(t, err)

	assert.NotNil(t, got.Medications)
	assert.Empty(t, got.Medications)
	assert.Equal(t, []string{"Rest"}, got.Management.ToDoList)
}

func TestParseMedications_NamesBeforeColon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		names []string
	}{
		{
			name: "inline fields after name",
			text: "1. Ibuprofen (Advil): Tablet. Side effects: stomach upset\n" +
				"2. Acetaminophen (Tylenol): Tablet. Side effects: nausea\n" +
				"3. Guaifenesin (Mucinex): Liquid. Side effects: headache",
			names: []string{"Ibuprofen (Advil)", "Acetaminophen (Tylenol)", "Guaifenesin (Mucinex)"},
		},
		{
			name:  "name heading with labelled fields",
			text:  "1. Tylenol:\n   Type of medication: Tablet\n   Side effects: Nausea",
			names: []string{"Tylenol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseMedications(tt.text, 3)
			require.Len(t, got, len(tt.names))
			for i, want := range tt.names {
				assert.Equal(t, want, got[i].Name)
				assert.Equal(t, i+1, got[i].Rank)
			}
		})
	}

	got := ParseMedications("1. Ibuprofen (Advil): Tablet. Side effects: stomach upset", 3)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].MedicationType)
	assert.Equal(t, "Tablet", *got[0].MedicationType)
	assert.Equal(t, "stomach upset", got[0].SideEffects)
}

func TestParseMedications_RanksAreContiguous(t *testing.T) {
	t.Parallel()

	text := "1. Type: Tablet\n2. Brand name: Advil\n3. Brand name: Aleve"
	got := ParseMedications(text, 3)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "Advil", got[0].Name)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, "Aleve", got[1].Name)
}

func TestParseMedications_Limit(t *testing.T) {
	t.Parallel()

	assert.Len(t, ParseMedications(medicationOnlyResponse, 3), 3)
	assert.Len(t, ParseMedications(medicationOnlyResponse, 5), 4)

	got := ParseMedications(medicationOnlyResponse, 3)
	assert.Equal(t, "Sudafed (Pseudoephedrine)", got[0].Name)
	require.NotNil(t, got[2].MedicationType)
	assert.Equal(t, "Ointment", *got[2].MedicationType)
}

func TestParseMedications_Empty(t *testing.T) {
	t.Parallel()

	got := ParseMedications("", 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseManagementLists(t *testing.T) {
	t.Parallel()

	text := "**DO:**\n1. Rest\n2. Hydrate\n3. Sleep\n4. Gargle salt water\n5. Use honey\n6. Walk\n\n**DON'T:**\n1. Smoke"
	got := ParseManagementLists(text, DefaultSplitListLimit)

	assert.Equal(t, []string{"Rest", "Hydrate", "Sleep", "Gargle salt water", "Use honey"}, got.ToDoList)
	assert.Equal(t, []string{"Smoke"}, got.DoNotList)
}

func TestParseManagementLists_NoLabels(t *testing.T) {
	t.Parallel()

	got := ParseManagementLists("I cannot help with that.", 5)
	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.ToDoList)
	assert.NotNil(t, got.DoNotList)
}
