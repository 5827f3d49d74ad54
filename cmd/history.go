package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meditrek/internal/config"
	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List stored consultations, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeHistory); err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 1 {
			c, err := st.GetConsultation(ctx, args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeOutput(cmd.OutOrStdout(), format, c)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		mode, _ := cmd.Flags().GetString("mode")
		status, _ := cmd.Flags().GetString("status")
		since, _ := cmd.Flags().GetDuration("since")

		filter := store.ConsultationFilter{
			Mode:   model.QueryMode(mode),
			Status: model.ConsultationStatus(status),
			Limit:  limit,
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		out, err := st.ListConsultations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(out) == 0 {
			fmt.Fprintln(os.Stderr, "No consultations found.")
			return nil
		}
		formatConsultations(cmd.OutOrStdout(), out)
		return nil
	},
}

// formatConsultations writes a table of consultations to out.
func formatConsultations(out io.Writer, list []model.Consultation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tSTATUS\tSYMPTOMS\tMEDS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t----\t-------\t--------")

	for _, c := range list {
		symptoms := strings.Join(c.Profile.Symptoms, ", ")
		if len(symptoms) > 30 {
			symptoms = symptoms[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(c.ID),
			c.Mode,
			c.Status,
			symptoms,
			len(c.Result.Medications),
			c.CreatedAt.Format("2006-01-02 15:04"),
			(time.Duration(c.DurationMs) * time.Millisecond).String(),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum consultations to list")
	historyCmd.Flags().String("mode", "", "filter by mode (medications, management, combined)")
	historyCmd.Flags().String("status", "", "filter by status (complete, partial, failed)")
	historyCmd.Flags().Duration("since", 0, "only consultations newer than this (e.g. 24h)")
	historyCmd.Flags().String("format", "json", "output format for a single consultation: json or yaml")
	rootCmd.AddCommand(historyCmd)
}
