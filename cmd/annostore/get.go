package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <table> <ids>",
	Short: "Fetch annotations by id",
	Long: `Fetch annotation rows by their ids. Ids are comma separated.
Rows are returned as stored, including superseded and deleted versions.`,
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

		records, err := store.GetAnnotations(args[0], ids)
		if err != nil {
			return err
		}
		return printResult(records, func() {
			if len(records) == 0 {
				fmt.Println("No annotations found")
				return
			}
			for _, rec := range records {
				line, err := json.Marshal(rec)
				if err != nil {
					fmt.Printf("%v\n", rec)
					continue
				}
				fmt.Println(string(line))
			}
		})
	},
}
