// Root command for the annostore CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/annostore/pkg/annostore"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagNamespace string
	flagJSON      bool
	flagVerbose   bool
)

// Values loaded from config.yaml by PersistentPreRunE; flags override.
var (
	configDataDir   string
	configNamespace string
)

var rootCmd = &cobra.Command{
	Use:     "annostore",
	Short:   "annostore is a versioned annotation store",
	Version: annostore.Version,
	Long: `annostore manages schema-typed annotation tables with full edit
history: updates supersede prior row-versions instead of mutating them,
and deletes are tombstones. Tables are scoped to a namespace.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configNamespace = cfg.GetString(cfgKeyNamespace)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.annostore)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: from config.yaml, else the config dir)")
	rootCmd.PersistentFlags().StringVar(&flagNamespace, "namespace", "", "namespace for table ids (default: from config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log store internals to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createTableCmd)
	rootCmd.AddCommand(deleteTableCmd)
	rootCmd.AddCommand(dropTableCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
}
