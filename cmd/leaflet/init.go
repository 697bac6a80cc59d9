// Init command creates the config and data directories and the store schema.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the leaflet store",
	Long: `Init creates the configuration directory with a default config.yaml,
the data directory, and an empty page store ready for use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the service creates every directory and the schema.
		_, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		fmt.Println("initialized leaflet store at", dataDir)
		return nil
	},
}
