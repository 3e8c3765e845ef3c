package cmd

import (
	"fmt"
	"os"

	"prefmodel/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "prefmodel",
	Short: "Preference data model service",
	Long: `prefmodel serves user/item preference data to collaborative-filtering engines.
It reads from a SQL table, a reloadable CSV file, or a Netflix-prize style corpus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Report through the same zap setup the commands use, in console form
		// for a terminal. Debug level selects the development config, which
		// prints ISO8601 timestamps instead of epoch seconds.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			// Backend errors carry the failing operation, so the message reads well as is
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Plain fallback if the logger cannot be built
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding the .env file")
}
