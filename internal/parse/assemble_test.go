package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meditrek/internal/model"
)

func TestAssemble(t *testing.T) {
	t.Parallel()

	rec, ok := Assemble(Fields{Name: "Advil (Ibuprofen)", Form: "Capsule", SideEffects: "Stomach upset"}, 2)
	require.True(t, ok)

	assert.Equal(t, 2, rec.Rank)
	assert.Equal(t, "Advil (Ibuprofen)", rec.Name)
	require.NotNil(t, rec.MedicationType)
	assert.Equal(t, "Capsule", *rec.MedicationType)
	assert.Equal(t, "Stomach upset", rec.SideEffects)
	assert.Equal(t, map[string]string{
		"cvs":       "https://www.cvs.com/search?searchTerm=Advil",
		"walgreens": "https://www.walgreens.com/search/results.jsp?Ntt=Advil",
	}, rec.PharmacyLinks)
}

func TestAssemble_Defaults(t *testing.T) {
	t.Parallel()

	rec, ok := Assemble(Fields{Name: "Zicam"}, 1)
	require.True(t, ok)

	assert.Nil(t, rec.MedicationType)
	assert.Equal(t, model.SideEffectsNotAvailable, rec.SideEffects)
	assert.Len(t, rec.PharmacyLinks, len(PharmacySites))
}

func TestAssemble_RequiresName(t *testing.T) {
	t.Parallel()

	_, ok := Assemble(Fields{Name: "  ", Form: "Tablet", SideEffects: "None"}, 1)
	assert.False(t, ok)
}

func TestExtractFields(t *testing.T) {
	t.Parallel()

	f := ExtractFields("Brand name: Advil\n   Type: Tablet\n   Side effects: Heartburn")
	assert.Equal(t, Fields{Name: "Advil", Form: "Tablet", SideEffects: "Heartburn"}, f)
}

func TestSearchTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Tylenol Extra Strength (Acetaminophen", "Tylenol"},
		{"Tylenol Extra Strength (Acetaminophen)", "Tylenol"},
		{"Advil (Ibuprofen)", "Advil"},
		{"Children's Motrin", "Motrin"},
		{"Aleve Maximum Strength", "Aleve"},
		{"Robitussin DM", "Robitussin DM"},
		{"(Ibuprofen)", "Ibuprofen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SearchTerm(tt.name))
		})
	}
}

func TestBuildSearchLinks_EncodesSpaces(t *testing.T) {
	t.Parallel()

	links := BuildSearchLinks("Robitussin DM")
	assert.Equal(t, "https://www.cvs.com/search?searchTerm=Robitussin%20DM", links["cvs"])
	assert.Equal(t, "https://www.walgreens.com/search/results.jsp?Ntt=Robitussin%20DM", links["walgreens"])
}

func TestBuildSearchLinks_EscapesReserved(t *testing.T) {
	t.Parallel()

	links := BuildSearchLinks("Bayer & Co")
	assert.Equal(t, "https://www.cvs.com/search?searchTerm=Bayer%20%26%20Co", links["cvs"])
}
