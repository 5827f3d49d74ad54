package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "meditrek",
	Short: "Over-the-counter medication and symptom management recommendations",
	Long:  "Asks a text-generation backend for ranked OTC medications and do/don't lists, and parses the free-text answers into structured records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// loadConfig reads config and applies the persistent flag overrides that were
// set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "load config")
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		c.Backend.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		c.Store.Driver, _ = flags.GetString("store")
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().String("provider", "", "backend provider: perplexity or anthropic (default from config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().String("store", "", "history store driver: none, sqlite or postgres (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
