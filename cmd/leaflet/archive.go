// Archive and restore commands toggle the soft-delete flag.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <page-id>",
	Short: "Archive a page",
	Long:  `Archive soft-deletes a page. The page stays recoverable via restore.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.ArchivePage(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("archive page: %w", err)
		}
		return printPage(page)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <page-id>",
	Short: "Restore an archived page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.RestorePage(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("restore page: %w", err)
		}
		return printPage(page)
	},
}
