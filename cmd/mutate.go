package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setCmd stores one preference
var setCmd = &cobra.Command{
	Use:   "set <user> <item> <value>",
	Short: "Set a preference value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[2], err)
		}

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

		if err := m.SetPreference(cmd.Context(), args[0], args[1], value); err != nil {
			return fmt.Errorf("failed to set preference: %w", err)
		}
		rt.logger.Info("Preference set",
			zap.String("user", args[0]),
			zap.String("item", args[1]),
			zap.Float64("value", value),
		)
		return nil
	},
}

// removeCmd deletes one preference
var removeCmd = &cobra.Command{
	Use:   "remove <user> <item>",
	Short: "Remove a preference",
	Args:  cobra.ExactArgs(2),
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

		if err := m.RemovePreference(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to remove preference: %w", err)
		}
		rt.logger.Info("Preference removed", zap.String("user", args[0]), zap.String("item", args[1]))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(removeCmd)
}
