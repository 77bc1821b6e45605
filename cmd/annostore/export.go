package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <table> <path>",
	Short: "Export a table to a JSONL file",
	Long: `Export every row of a table, including superseded and deleted
versions, to a JSON-lines file. The file is written atomically.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		if err := store.ExportTableJSONL(args[0], args[1]); err != nil {
			return err
		}
		return printResult(map[string]any{"path": args[1]}, func() {
			fmt.Printf("Exported %s to %s\n", args[0], args[1])
		})
	},
}
