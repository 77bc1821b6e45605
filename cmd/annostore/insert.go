package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var insertFile string

var insertCmd = &cobra.Command{
	Use:   "insert <table>",
	Short: "Insert annotations into a table",
	Long: `Insert one or more annotation records into a table. Records are
read as JSON from --file (a single object or an array of objects);
"-" reads from stdin. The whole batch is applied or none of it is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(insertFile)
		if err != nil {
			return err
		}

		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		if err := store.InsertAnnotations(args[0], records); err != nil {
			return err
		}
		return printResult(map[string]any{"inserted": len(records)}, func() {
			fmt.Printf("Inserted %d annotation(s) into %s\n", len(records), args[0])
		})
	},
}

func init() {
	insertCmd.Flags().StringVarP(&insertFile, "file", "f", "-", "JSON file with records, - for stdin")
}
