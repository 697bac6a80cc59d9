// Tree command prints the page hierarchy.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwellhq/leaflet/pkg/types"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the page tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		forest, err := svc.PageTree(cmd.Context())
		if err != nil {
			return fmt.Errorf("load tree: %w", err)
		}

		if flagJSON {
			return printJSON(forest)
		}
		for _, node := range forest {
			printNode(node, 0)
		}
		return nil
	},
}

func printNode(node *types.PageNode, depth int) {
	fmt.Printf("%s%s  %s\n", strings.Repeat("  ", depth), node.Page.PageID, node.Page.Title)
	for _, child := range node.Children {
		printNode(child, depth+1)
	}
}
