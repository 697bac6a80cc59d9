// Version command for the leaflet CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwellhq/leaflet/pkg/leaflet"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the leaflet version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leaflet", leaflet.Version)
	},
}
