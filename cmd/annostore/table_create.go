// The create-table command registers a new annotation table.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/annostore/pkg/types"
)

var (
	flagDescription string
	flagUserID      string
	flagReference   string
	flagTrack       bool
	flagSegSource   string
)

var createTableCmd = &cobra.Command{
	Use:   "create-table <name> <schema-type>",
	Short: "Create a new annotation table",
	Long: `Create a new annotation table backed by the given schema type.
Reference-kind schema types require --reference-table naming a
different, existing table.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		md, err := store.CreateTable(args[0], args[1], types.TableOptions{
			Description:          flagDescription,
			UserID:               flagUserID,
			ReferenceTable:       flagReference,
			TrackTargetIDUpdates: flagTrack,
			SegmentationSource:   flagSegSource,
		})
		if err != nil {
			return err
		}

		return printResult(md, func() {
			fmt.Printf("Created table %s (schema %s)\n", md.TableName, md.SchemaType)
		})
	},
}

func init() {
	createTableCmd.Flags().StringVar(&flagDescription, "description", "", "human-readable description of the table")
	createTableCmd.Flags().StringVar(&flagUserID, "user-id", "", "id of the user creating the table")
	createTableCmd.Flags().StringVar(&flagReference, "reference-table", "", "target table for reference-kind schemas")
	createTableCmd.Flags().BoolVar(&flagTrack, "track-target-id-updates", false, "follow target id updates in the reference table")
	createTableCmd.Flags().StringVar(&flagSegSource, "segmentation-source", "", "segmentation source; creates a shadow segmentation table")
}
