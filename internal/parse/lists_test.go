package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractList_DoAndDont(t *testing.T) {
	t.Parallel()

	section := "DO:\n1. Rest\n2. Hydrate\nDON'T:\n1. Smoke"

	assert.Equal(t, []string{"Rest", "Hydrate"}, ExtractList(section, DoLabel, 3))
	assert.Equal(t, []string{"Smoke"}, ExtractList(section, DontLabel, 3))
}

func TestExtractList_MissingLabel(t *testing.T) {
	t.Parallel()

	got := ExtractList("1. Rest\n2. Hydrate", DoLabel, 3)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractList_LabelWithoutItems(t *testing.T) {
	t.Parallel()

	got := ExtractList("DO:\nNothing specific today.", DoLabel, 3)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractList_Limit(t *testing.T) {
	t.Parallel()

	section := "DO:\n1. a\n2. b\n3. c\n4. d\n5. e\n6. f"

	assert.Len(t, ExtractList(section, DoLabel, 3), 3)
	assert.Len(t, ExtractList(section, DoLabel, 5), 5)
	assert.Len(t, ExtractList(section, DoLabel, 0), 6)
}

func TestExtractList_BlankLinesAndParenNumbering(t *testing.T) {
	t.Parallel()

	section := "  to do:  \n\n1) Rest\n\n2) Sleep early\nSome closing remark\n3) Not part of the list"

	assert.Equal(t, []string{"Rest", "Sleep early"}, ExtractList(section, DoLabel, 5))
}

func TestExtractList_HeaderVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		label  Label
	}{
		{"DO:", DoLabel},
		{"To-Do List:", DoLabel},
		{"TO DO:", DoLabel},
		{"DON'T:", DontLabel},
		{"Dont:", DontLabel},
		{"DO NOT:", DontLabel},
		{"Do-Not List:", DontLabel},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			got := ExtractList(tt.header+"\n1. Item one", tt.label, 3)
			assert.Equal(t, []string{"Item one"}, got)
		})
	}
}

func TestExtractList_LabelMustStandAlone(t *testing.T) {
	t.Parallel()

	// "DO NOT:" is not the DO: header, and an inline header is not a header.
	assert.Empty(t, ExtractList("DO NOT:\n1. Smoke", DoLabel, 3))
	assert.Empty(t, ExtractList("DO: 1. Rest", DoLabel, 3))
}

func TestCleanListItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Avoid caffeine & alcohol [3][7]!", "Avoid caffeine alcohol"},
		{"Take a warm bath (not hot).", "Take a warm bath (not hot)."},
		{"Use saline-spray, twice daily", "Use saline-spray, twice daily"},
		{"Don't scratch", "Dont scratch"},
		{"Drink 8 glasses/day", "Drink 8 glassesday"},
		{"Évitez le café", "Évitez le café"},
		{"  ***  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanListItem(tt.in))
		})
	}
}

func TestLabel_ZeroValueNeverMatches(t *testing.T) {
	t.Parallel()

	assert.False(t, Label{}.Matches("DO:"))
}
