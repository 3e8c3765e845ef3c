package cmd

import (
	"fmt"

	"prefmodel/feature/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportPrefix string

// exportCmd copies the configured model into Redis
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export preferences to Redis",
	Long:  `Writes per-user and per-item preference maps to Redis for recall services.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		m, err := rt.openModel(cmd.Context())
		if err != nil {
			return err
		}
		defer m.close()

		cfg := rt.cfg.Export
		if exportPrefix != "" {
			cfg.Prefix = exportPrefix
		}
		w, err := export.NewRedisWriter(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer w.Close()

		res, err := export.NewExporter(w, cfg, rt.logger.With(zap.String("backend", m.backend))).Export(cmd.Context(), m)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		return printJSON(res)
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "Override the key prefix")
}
