// The delete-table and drop-table commands: soft delete versus
// physical removal.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteTableCmd = &cobra.Command{
	Use:   "delete-table <name>",
	Short: "Soft-delete an annotation table",
	Long: `Mark an annotation table deleted. The table disappears from
listings and materialization but its rows and storage persist; use
drop-table to remove them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		if err := store.DeleteTable(args[0]); err != nil {
			return err
		}
		fmt.Printf("Table %s marked deleted\n", args[0])
		return nil
	},
}

var dropTableCmd = &cobra.Command{
	Use:   "drop-table <name>",
	Short: "Physically drop an annotation table",
	Long: `Remove an annotation table's storage, any segmentation storage,
and its metadata. Irreversible.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		if err := store.DropTable(args[0]); err != nil {
			return err
		}
		fmt.Printf("Table %s dropped\n", args[0])
		return nil
	},
}
