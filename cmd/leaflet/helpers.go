// Shared helpers for leaflet CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/inkwellhq/leaflet/internal/codec"
	"github.com/inkwellhq/leaflet/internal/pages"
	"github.com/inkwellhq/leaflet/internal/sqlite"
	"github.com/inkwellhq/leaflet/pkg/types"
)

// dbFileName is the SQLite database file inside the data directory.
const dbFileName = "leaflet.db"

// openService resolves directories, opens the store, and wires the page
// service over it. The caller must call the returned close func.
func openService() (*pages.Service, func(), error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg, err := serviceConfig(configDir, dataDir)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure data dir: %w", err)
	}

	gw, err := sqlite.Open(filepath.Join(cfg.DataDir, dbFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()

	svc := pages.NewService(gw, codec.New(), pages.Options{
		DebounceInterval: cfg.DebounceInterval,
		RetryBase:        cfg.RetryBase,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		Logger:           log,
	})

	closeAll := func() {
		svc.Close()
		if err := gw.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close store:", err)
		}
	}
	return svc, closeAll, nil
}

// printPage writes one page to stdout, as JSON when --json is set.
func printPage(page *types.Page) error {
	if flagJSON {
		return printJSON(page)
	}
	parent := "-"
	if page.ParentID != nil {
		parent = *page.ParentID
	}
	fmt.Printf("%s  rev=%d  parent=%s  %s\n", page.PageID, page.Revision, parent, page.Title)
	return nil
}

// printPages writes a page listing to stdout, as JSON when --json is set.
func printPages(list []*types.Page) error {
	if flagJSON {
		return printJSON(list)
	}
	for _, page := range list {
		if err := printPage(page); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// optionalID turns a flag value into the nullable-parent form: empty string
// means root level.
func optionalID(flag string) *string {
	if flag == "" {
		return nil
	}
	return &flag
}
