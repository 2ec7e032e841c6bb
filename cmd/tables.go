package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	tablesSchema  string
	tablesColumns bool
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables of the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx, bootOptions{source: true})
		if err != nil {
			return err
		}
		defer a.Close()

		src := a.runner.Source()
		if err := src.TestConnection(ctx); err != nil {
			return err
		}

		tables, err := src.ListTables(ctx, tablesSchema)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			fmt.Fprintln(os.Stderr, "No tables found")
			return nil
		}

		for _, t := range tables {
			fmt.Println(t)
			if !tablesColumns {
				continue
			}
			cols, err := src.GetColumns(ctx, tablesSchema, t)
			if err != nil {
				return err
			}
			for _, c := range cols {
				null := ""
				if c.Nullable {
					null = " (nullable)"
				}
				fmt.Printf("  %-30s %s%s\n", c.Name, c.DataType, null)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().StringVarP(&tablesSchema, "schema", "s", "",
		"Schema to list (default: database.schema)")
	tablesCmd.Flags().BoolVarP(&tablesColumns, "columns", "c", false,
		"Also list the columns of each table")
}
