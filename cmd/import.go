package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importSource string
	importPrefix string
	importDryRun bool
)

// importCmd loads a Netflix-prize style corpus and writes it into the SQL table
var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import a rating corpus into the database",
	Long: `Reads movie_titles.txt and the training_set directory, either from a local
directory or from the configured bucket, and upserts every rating into the
preference table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		logg := rt.logger
		defer logg.Sync()

		bulkCfg := rt.cfg.Model.Bulk
		if len(args) == 1 {
			bulkCfg.Dir = args[0]
			bulkCfg.Source = "dir"
		}
		if importSource != "" {
			bulkCfg.Source = importSource
		}
		if importPrefix != "" {
			bulkCfg.Prefix = importPrefix
		}

		start := time.Now()
		corpus, err := rt.loadCorpus(cmd.Context(), bulkCfg)
		if err != nil {
			return err
		}
		users, _ := corpus.NumUsers(cmd.Context())
		items, _ := corpus.NumItems(cmd.Context())
		if importDryRun {
			fmt.Printf("Dry run: %d users, %d items\n", users, items)
			return nil
		}

		m, closeDB, err := rt.openSQL()
		if err != nil {
			return err
		}
		defer closeDB()
		if err := m.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("failed to prepare table: %w", err)
		}

		logg.Info("Writing corpus to database", zap.String("table", m.Config().Table))
		written := 0
		for u, err := range corpus.Users(cmd.Context()) {
			if err != nil {
				return fmt.Errorf("failed to read corpus: %w", err)
			}
			for _, p := range u.Preferences() {
				if err := m.SetPreference(cmd.Context(), u.ID(), p.Item.ID, p.Value); err != nil {
					return fmt.Errorf("failed to write preference after %d rows: %w", written, err)
				}
				written++
				if written%100000 == 0 {
					logg.Info("Import progress", zap.Int("rows", written))
				}
			}
		}

		fmt.Printf("Imported %d preferences for %d users and %d items in %s\n",
			written, users, items, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importSource, "source", "", "Corpus source: dir or bucket")
	importCmd.Flags().StringVar(&importPrefix, "prefix", "", "Object key prefix when reading from a bucket")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse the corpus without writing to the database")
}
