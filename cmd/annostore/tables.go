// The tables, metadata, and schemas listing commands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/annostore/internal/schemas"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List existing annotation tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		names, err := store.ListExistingTableNames()
		if err != nil {
			return err
		}
		return printResult(names, func() {
			if len(names) == 0 {
				fmt.Println("No tables")
				return
			}
			for _, name := range names {
				fmt.Println(name)
			}
		})
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata [table]",
	Short: "Show table metadata",
	Long: `Show the metadata of one table, or of every live table when no
name is given. Soft-deleted tables resolve by name only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		if len(args) == 1 {
			md, err := store.GetTableMetadata(args[0])
			if err != nil {
				return err
			}
			return printResult(md, func() {
				fmt.Printf("%s\tschema=%s\tuser=%s\tdeleted=%v\n",
					md.TableName, md.SchemaType, md.UserID, md.Deleted())
			})
		}

		mds, err := store.ListExistingTableMetadata()
		if err != nil {
			return err
		}
		return printResult(mds, func() {
			for _, md := range mds {
				fmt.Printf("%s\tschema=%s\tuser=%s\n", md.TableName, md.SchemaType, md.UserID)
			}
		})
	},
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List registered schema types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := schemas.NewRegistry().List()
		return printResult(names, func() {
			for _, name := range names {
				fmt.Println(name)
			}
		})
	},
}
