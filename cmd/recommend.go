package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meditrek/internal/config"
	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Ask for medication and symptom management recommendations",
	Example: `  meditrek recommend --symptoms "cough, fever" --age 34 --gender female
  meditrek recommend --symptoms headache --mode split --format yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeRecommend); err != nil {
			return err
		}

		symptoms, _ := cmd.Flags().GetString("symptoms")
		gender, _ := cmd.Flags().GetString("gender")
		age, _ := cmd.Flags().GetString("age")
		allergic, _ := cmd.Flags().GetString("allergic")
		mode, _ := cmd.Flags().GetString("mode")
		format, _ := cmd.Flags().GetString("format")

		profile := model.PatientProfile{
			Symptoms:  model.ParseSymptoms(symptoms),
			Gender:    gender,
			Age:       age,
			Allergies: allergic,
		}

		ctx := cmd.Context()
		a, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := runRecommend(ctx, a.service, profile, mode)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, result)
	},
}

// runRecommend answers one query in the given mode.
func runRecommend(ctx context.Context, svc *recommend.Service, profile model.PatientProfile, mode string) (any, error) {
	switch mode {
	case "", string(model.QueryModeCombined):
		return svc.GetCombinedRecommendations(ctx, profile)
	case "split":
		return svc.GetSplitRecommendations(ctx, profile)
	case string(model.QueryModeMedications):
		meds, err := svc.GetMedicationRecommendations(ctx, profile)
		return map[string]any{"medications": meds}, err
	case string(model.QueryModeManagement):
		return svc.GetSymptomManagementLists(ctx, profile.Symptoms)
	default:
		return nil, eris.Errorf("unsupported mode %q (want combined, split, medications or management)", mode)
	}
}

func init() {
	recommendCmd.Flags().String("symptoms", "", "comma-separated symptoms")
	recommendCmd.Flags().String("gender", "", "patient gender")
	recommendCmd.Flags().String("age", "", "patient age")
	recommendCmd.Flags().String("allergic", "", "known allergies")
	recommendCmd.Flags().String("mode", "combined", "query mode: combined, split, medications or management")
	recommendCmd.Flags().String("format", "json", "output format: json or yaml")
	_ = recommendCmd.MarkFlagRequired("symptoms")
	rootCmd.AddCommand(recommendCmd)
}
