package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCreate bool

// schemaCmd checks, and optionally creates, the preference table
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Validate the preference table",
	Long:  `Checks that the configured preference table has the user, item and value columns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		m, closeDB, err := rt.openSQL()
		if err != nil {
			return err
		}
		defer closeDB()

		if schemaCreate {
			if err := m.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
		if err := m.ValidateSchema(cmd.Context()); err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		fmt.Printf("Table %s OK\n", m.Config().Table)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaCreate, "create", false, "Create the table if it does not exist")
}
