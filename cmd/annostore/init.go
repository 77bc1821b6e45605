// The init command creates the config directory, a default
// config.yaml, and the namespace database.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the annotation store",
	Long: `Initialize the annostore configuration directory and namespace
database. Safe to run repeatedly; existing data is never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		store, err := attachStore()
		if err != nil {
			return err
		}
		defer store.Detach()

		namespace, _ := resolveNamespace()
		fmt.Printf("Initialized annotation store for namespace %q (config: %s)\n", namespace, configDir)
		return nil
	},
}
