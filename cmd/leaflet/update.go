// Update command mutates page metadata with an optional revision check.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwellhq/leaflet/pkg/types"
)

var (
	updateTitle    string
	updateIcon     string
	updateCoverURL string
	updateFont     string
	updateFavorite bool
	updateLocked   bool
	updateRevision int64
)

var updateCmd = &cobra.Command{
	Use:   "update <page-id>",
	Short: "Update page metadata",
	Long: `Update writes the supplied fields to a page. Only flags that were
set are written. For --icon and --cover-url an empty value clears the field.

With --expect-revision the write only succeeds when the stored revision
still matches; a concurrent write in between makes the command fail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params types.UpdatePageParams
		if cmd.Flags().Changed("title") {
			params.Title = &updateTitle
		}
		if cmd.Flags().Changed("icon") {
			params.Icon = &updateIcon
		}
		if cmd.Flags().Changed("cover-url") {
			params.CoverURL = &updateCoverURL
		}
		if cmd.Flags().Changed("font") {
			params.FontFamily = &updateFont
		}
		if cmd.Flags().Changed("favorite") {
			params.IsFavorited = &updateFavorite
		}
		if cmd.Flags().Changed("locked") {
			params.IsLocked = &updateLocked
		}
		if cmd.Flags().Changed("expect-revision") {
			params.ExpectedRevision = &updateRevision
		}
		if params.IsEmpty() {
			fmt.Fprintln(os.Stderr, "update: no fields to write")
			os.Exit(exitUserError)
		}

		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, err := svc.UpdatePage(cmd.Context(), args[0], params)
		if errors.Is(err, types.ErrRevisionConflict) {
			return fmt.Errorf("page %s changed since revision %d: %w", args[0], updateRevision, err)
		}
		if err != nil {
			return fmt.Errorf("update page: %w", err)
		}
		return printPage(page)
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateIcon, "icon", "", "icon (empty clears)")
	updateCmd.Flags().StringVar(&updateCoverURL, "cover-url", "", "cover image URL (empty clears)")
	updateCmd.Flags().StringVar(&updateFont, "font", "", "font family: default, serif, mono")
	updateCmd.Flags().BoolVar(&updateFavorite, "favorite", false, "favorite flag")
	updateCmd.Flags().BoolVar(&updateLocked, "locked", false, "lock flag")
	updateCmd.Flags().Int64Var(&updateRevision, "expect-revision", 0, "require the stored revision to match")
}
