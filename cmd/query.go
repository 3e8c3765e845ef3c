package cmd

import (
	"fmt"

	"prefmodel/feature/preferences"

	"github.com/spf13/cobra"
)

var (
	itemAssumeExists bool
	itemWithPrefs    bool
)

// statsCmd prints user and item counts of the configured backend
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count users and items",
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

		st, err := preferences.NewService(m, m.backend, rt.logger).Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count model: %w", err)
		}
		return printJSON(st)
	},
}

// userCmd prints one user's preferences
var userCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Show a user's preferences",
	Args:  cobra.ExactArgs(1),
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

		u, err := m.User(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		fmt.Printf("User %s: %d preferences\n", u.ID(), u.Len())
		for _, p := range u.Preferences() {
			fmt.Printf("  %-20s %g\n", p.Item.ID, p.Value)
		}
		return nil
	},
}

// itemCmd resolves an item and optionally lists who rated it
var itemCmd = &cobra.Command{
	Use:   "item <id>",
	Short: "Show an item",
	Args:  cobra.ExactArgs(1),
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

		item, err := m.Item(cmd.Context(), args[0], itemAssumeExists)
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}
		fmt.Printf("Item %s", item.ID)
		if item.Title != "" {
			fmt.Printf(" (%s)", item.Title)
		}
		fmt.Println()

		if !itemWithPrefs {
			return nil
		}
		prefs, err := m.PreferencesForItem(cmd.Context(), item.ID)
		if err != nil {
			return fmt.Errorf("failed to get item preferences: %w", err)
		}
		for _, p := range prefs {
			fmt.Printf("  %-20s %g\n", p.UserID, p.Value)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(userCmd)
	RootCmd.AddCommand(itemCmd)

	itemCmd.Flags().BoolVar(&itemAssumeExists, "assume-exists", false, "Skip the existence check")
	itemCmd.Flags().BoolVar(&itemWithPrefs, "preferences", false, "List the users who expressed a preference")
}
