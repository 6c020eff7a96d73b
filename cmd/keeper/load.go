package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hudkeep/keeper/internal/db"
	"github.com/hudkeep/keeper/internal/tabular"
)

var flagTable string

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Parse a tabular file and load it into the configured SQL table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Database == nil {
			return fmt.Errorf("no database configured")
		}

		table := flagTable
		if table == "" {
			table = a.cfg.Database.Table
		}
		if table == "" {
			return fmt.Errorf("no table given: set --table or database.table in config")
		}

		parsed, err := tabular.NewRegistry().Parse(args[0])
		if err != nil {
			return err
		}

		database, err := db.Open(cmd.Context(), a.cfg.Database.Driver, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer database.Close()

		inserted, err := db.LoadTable(cmd.Context(), database, table, parsed)
		if err != nil {
			return err
		}

		fmt.Printf("loaded %d row(s) from %s into %s\n", inserted, args[0], table)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&flagTable, "table", "", "Destination table (overrides config)")
	rootCmd.AddCommand(loadCmd)
}
