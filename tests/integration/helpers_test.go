// Package integration exercises the full page store through the same
// wiring the CLI uses: a real SQLite database on disk, the content codec,
// and the page service with its live scheduler.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/leaflet/internal/codec"
	"github.com/inkwellhq/leaflet/internal/pages"
	"github.com/inkwellhq/leaflet/internal/sqlite"
	"github.com/inkwellhq/leaflet/pkg/types"
)

// shortDebounce keeps real-clock tests fast while still exercising the
// coalescing window.
const shortDebounce = 20 * time.Millisecond

// setupService opens a store in an isolated temp directory and wires a
// service over it with a short debounce interval. Each test gets its own
// database file.
func setupService(t *testing.T) *pages.Service {
	t.Helper()
	dir := t.TempDir()

	gw, err := sqlite.Open(filepath.Join(dir, "leaflet.db"))
	require.NoError(t, err)

	svc := pages.NewService(gw, codec.New(), pages.Options{
		DebounceInterval: shortDebounce,
		RetryBase:        shortDebounce,
		Logger:           zerolog.Nop(),
	})
	t.Cleanup(func() {
		svc.Close()
		require.NoError(t, gw.Close())
	})
	return svc
}

// mustCreatePage creates a page or fails the test.
func mustCreatePage(t *testing.T, svc *pages.Service, parentID *string, title string) *types.Page {
	t.Helper()
	page, err := svc.CreatePage(context.Background(), parentID, title)
	require.NoError(t, err)
	require.NotNil(t, page)
	return page
}

// mustGetPage retrieves an existing page or fails the test.
func mustGetPage(t *testing.T, svc *pages.Service, id string) *types.Page {
	t.Helper()
	page, err := svc.GetPage(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, page)
	return page
}

// paragraph builds a minimal block node with the given text.
func paragraph(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"paragraph","content":[{"type":"text","text":%q}]}`, text))
}

// docWith encodes a document holding the given blocks.
func docWith(t *testing.T, blocks ...json.RawMessage) string {
	t.Helper()
	enc, err := codec.New().EncodeFromDoc(blocks)
	require.NoError(t, err)
	return enc.Content
}

// decodeBlocks decodes a stored payload and returns its block list.
func decodeBlocks(t *testing.T, content string) []json.RawMessage {
	t.Helper()
	dec, err := codec.New().Decode(content)
	require.NoError(t, err)
	return dec.Blocks
}
