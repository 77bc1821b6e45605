package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <table> <ids>",
	Short: "Mark annotations as deleted",
	Long: `Mark annotations as deleted by stamping a deletion timestamp on
each matching row. Rows are kept for history; ids with no matching row
are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args[1])
		if err != nil {
			return err
		}

		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		count, err := store.DeleteAnnotations(args[0], ids)
		if err != nil {
			return err
		}
		return printResult(map[string]any{"deleted": count}, func() {
			fmt.Printf("Deleted %d annotation(s) from %s\n", count, args[0])
		})
	},
}
