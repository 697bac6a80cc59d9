// Delete command removes a page permanently.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <page-id>",
	Short: "Delete a page permanently",
	Long:  `Delete removes a page and, through the schema's cascade, its descendants.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		if err := svc.DeletePage(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}
