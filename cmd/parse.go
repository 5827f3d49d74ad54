package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/config"
	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/parse"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a saved backend response without calling the backend",
	Example: `  meditrek parse --file response.txt
  cat response.txt | meditrek parse --file - --mode management --limit 5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(config.ModeParse); err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		mode, _ := cmd.Flags().GetString("mode")
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")

		text, err := readInput(cmd.InOrStdin(), file)
		if err != nil {
			return err
		}

		result, err := parseResponse(text, mode, cfg.Parse, limit)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, result)
	},
}

func readInput(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", eris.Wrapf(err, "read %s", file)
	}
	return string(data), nil
}

// parseResponse runs the parsing engine in the given mode. A positive limit
// overrides the configured caps.
func parseResponse(text, mode string, pc config.ParseConfig, limit int) (any, error) {
	medLimit := pick(limit, pc.MedicationLimit, parse.DefaultMedicationLimit)

	switch mode {
	case "", string(model.QueryModeCombined):
		result, err := parse.ParseCombined(text, medLimit, pick(limit, pc.CombinedListLimit, parse.DefaultCombinedListLimit))
		if err != nil {
			zap.L().Warn("response has no usable management section", zap.Error(err))
		}
		return result, nil
	case string(model.QueryModeMedications):
		return map[string]any{"medications": parse.ParseMedications(text, medLimit)}, nil
	case string(model.QueryModeManagement):
		return parse.ParseManagementLists(text, pick(limit, pc.SplitListLimit, parse.DefaultSplitListLimit)), nil
	default:
		return nil, eris.Errorf("unsupported mode %q (want combined, medications or management)", mode)
	}
}

func pick(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func init() {
	parseCmd.Flags().String("file", "", "response file to parse, or - for stdin")
	parseCmd.Flags().String("mode", "combined", "response shape: combined, medications or management")
	parseCmd.Flags().String("format", "json", "output format: json or yaml")
	parseCmd.Flags().Int("limit", 0, "item cap (default from config)")
	_ = parseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseCmd)
}
