// Show command prints one page and its decoded document.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwellhq/leaflet/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <page-id>",
	Short: "Show a page and its block content",
	Long: `Show reads one page and decodes its document. A page stored in a
legacy encoding is repaired in place as a side effect of opening it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService()
		if err != nil {
			return err
		}
		defer closeSvc()

		page, doc, err := svc.OpenPage(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		if page == nil {
			return fmt.Errorf("page %s: %w", args[0], types.ErrNotFound)
		}

		if flagJSON {
			return printJSON(struct {
				Page   *types.Page       `json:"page"`
				Blocks []json.RawMessage `json:"blocks"`
			}{page, doc.Blocks})
		}

		if err := printPage(page); err != nil {
			return err
		}
		fmt.Printf("schema=%d  blocks=%d  archived=%v  updated=%s\n",
			page.SchemaVersion, len(doc.Blocks), page.IsArchived, page.UpdatedAt.Format("2006-01-02 15:04:05"))
		for _, block := range doc.Blocks {
			fmt.Println(" ", string(block))
		}
		return nil
	},
}
