// Duplicate command deep-copies a page subtree.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <page-id>",
	Short: "Duplicate a page and its subtree",
	Long: `Duplicate deep-copies a page and all of its descendants under fresh
IDs. The copy is placed after the original among its siblings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.DuplicatePage(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("duplicate page: %w", err)
		}
		return printPage(page)
	},
}
