// List command queries pages from the store.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwellhq/leaflet/pkg/types"
)

var (
	listChildren  string
	listFavorites bool
	listArchived  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages",
	Long: `List prints root pages by default. --children lists the children of
one page, --favorites the favorited pages, --archived the soft-deleted ones.

Example:
  leaflet list
  leaflet list --children 0198a7b2-...
  leaflet list --favorites
  leaflet list --archived --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		var list []*types.Page
		switch {
		case listChildren != "":
			list, err = svc.ListChildren(cmd.Context(), listChildren)
		case listFavorites:
			list, err = svc.ListFavorites(cmd.Context())
		case listArchived:
			list, err = svc.ListArchived(cmd.Context())
		default:
			list, err = svc.ListRootPages(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("list pages: %w", err)
		}
		return printPages(list)
	},
}

func init() {
	listCmd.Flags().StringVar(&listChildren, "children", "", "list children of the given page ID")
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "list favorited pages")
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "list archived pages")
}
