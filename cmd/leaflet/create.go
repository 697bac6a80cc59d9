// Create command for the leaflet CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createTitle  string
	createParent string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new page",
	Long: `Create makes a new page with an empty document. With --parent the
page becomes the last child of that parent; otherwise it is a root page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.CreatePage(cmd.Context(), optionalID(createParent), createTitle)
		if err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		return printPage(page)
	},
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "page title")
	createCmd.Flags().StringVar(&createParent, "parent", "", "parent page ID (omit for a root page)")
}
