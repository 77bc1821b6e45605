package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateFile string

var updateCmd = &cobra.Command{
	Use:   "update <table>",
	Short: "Update an annotation",
	Long: `Update an annotation by inserting a new version and marking the
old row as superseded. The record read from --file must carry an "id"
field naming the row to supersede. Prints the id of the new version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(updateFile)
		if err != nil {
			return err
		}
		if len(records) != 1 {
			return fmt.Errorf("update takes exactly one record, got %d", len(records))
		}

		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		newID, err := store.UpdateAnnotation(args[0], records[0])
		if err != nil {
			return err
		}
		return printResult(map[string]any{"id": newID}, func() {
			fmt.Printf("Updated annotation, new id %d\n", newID)
		})
	},
}

func init() {
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "-", "JSON file with the record, - for stdin")
}
