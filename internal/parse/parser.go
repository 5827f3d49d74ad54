package parse

import (
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/model"
)

// Default caps, matching what the prompts ask the backend for.
const (
	DefaultMedicationLimit   = 3
	DefaultCombinedListLimit = 3
	DefaultSplitListLimit    = 5
)

// ParseMedications extracts up to limit ranked medications from a
// medication-only response. Items without a name are skipped.
func ParseMedications(text string, limit int) []model.MedicationRecommendation {
	return parseMedicationSection(dropHeader(Normalize(text), MedicationsHeader), limit)
}

// ParseManagementLists extracts the DO and DON'T lists from a response, each
// capped at limit.
func ParseManagementLists(text string, limit int) model.ManagementLists {
	return parseManagementSection(Normalize(text), limit)
}

// ParseCombined splits a combined response at the MANAGEMENT: marker and
// parses both halves. When the marker cannot be located the result is empty
// and the section error is returned so callers can tell a parsing failure
// from a response that simply listed nothing.
func ParseCombined(text string, medicationLimit, listLimit int) (model.CombinedRecommendation, error) {
	out := model.CombinedRecommendation{
		Medications: []model.MedicationRecommendation{},
		Management:  model.EmptyManagementLists(),
	}

	primary, secondary, err := SplitSections(Normalize(text), ManagementMarker)
	if err != nil {
		zap.L().Warn("parse: combined response not split", zap.Error(err), zap.Int("response_bytes", len(text)))
		return out, err
	}

	out.Medications = parseMedicationSection(primary, medicationLimit)
	out.Management = parseManagementSection(secondary, listLimit)
	return out, nil
}

func parseMedicationSection(section string, limit int) []model.MedicationRecommendation {
	meds := []model.MedicationRecommendation{}
	rank := 1
	for i, item := range SplitItems(section, limit) {
		rec, ok := Assemble(ExtractFields(item), rank)
		if !ok {
			zap.L().Debug("parse: skipping item without a name", zap.Int("item", i+1))
			continue
		}
		meds = append(meds, rec)
		rank++
	}
	return meds
}

func parseManagementSection(section string, limit int) model.ManagementLists {
	return model.ManagementLists{
		ToDoList:  ExtractList(section, DoLabel, limit),
		DoNotList: ExtractList(section, DontLabel, limit),
	}
}
