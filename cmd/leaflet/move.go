// Move command reparents a page within the tree.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	moveParent string
	moveAfter  string
)

var moveCmd = &cobra.Command{
	Use:   "move <page-id>",
	Short: "Move a page to a new parent",
	Long: `Move reparents a page. Without --parent the page becomes a root
page. With --after the page is placed directly after that sibling;
otherwise it goes to the end of the new parent's children.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.MovePage(cmd.Context(), args[0], optionalID(moveParent), optionalID(moveAfter))
		if err != nil {
			return fmt.Errorf("move page: %w", err)
		}
		return printPage(page)
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveParent, "parent", "", "new parent page ID (omit for root level)")
	moveCmd.Flags().StringVar(&moveAfter, "after", "", "sibling to place the page after")
}
