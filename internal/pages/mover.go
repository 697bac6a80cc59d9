package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// MoveBlocksParams describes a cross-page block move. The editor has
// already removed the moved nodes from its in-memory source document, so
// SourceDoc is the remaining source content and Blocks are the nodes to
// append to the target.
type MoveBlocksParams struct {
	SourceID  string
	TargetID  string
	SourceDoc []json.RawMessage
	Blocks    []json.RawMessage

	// Optional expected revisions. When nil, the mover falls back to the
	// revision tracker's last-known values, and skips the precheck for a
	// page the tracker has never seen (the in-transaction conditional
	// update still guards it).
	SourceExpectedRevision *int64
	TargetExpectedRevision *int64
}

// blockMover moves content nodes between two pages in one storage
// transaction. The contract is strict all-or-nothing: either both rows
// update and both revisions advance by one, or neither row is touched.
type blockMover struct {
	gw      types.Gateway
	codec   types.Codec
	tracker *revisionTracker
	events  *notifier
	clock   Clock
	log     zerolog.Logger
	cancel  func(pageID string)

	// store is the repo's operation lock, held for the whole
	// BEGIN..COMMIT/ROLLBACK span. The gateway runs a single connection,
	// so a write from any other goroutine issued mid-transaction would
	// join the transaction and be lost on rollback.
	store *sync.Mutex
}

// MoveBlocks performs the move. Any pending save or retry for either page
// is canceled before the transaction opens, so a coalesced write cannot
// race it. On failure a rollback is attempted best-effort; a rollback
// failure is logged and swallowed so it never masks the original error.
func (m *blockMover) MoveBlocks(ctx context.Context, p MoveBlocksParams) error {
	if p.SourceID == "" || p.TargetID == "" {
		return types.ErrInvalidID
	}
	if p.SourceID == p.TargetID {
		return types.ErrSamePage
	}
	if len(p.Blocks) == 0 {
		return types.ErrNoBlocks
	}

	m.cancel(p.SourceID)
	m.cancel(p.TargetID)

	m.store.Lock()
	defer m.store.Unlock()

	if _, err := m.gw.Run(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning block move: %w", err)
	}

	src, tgt, err := m.moveInTx(ctx, p)
	if err != nil {
		m.rollback(ctx, err)
		return err
	}

	if _, err := m.gw.Run(ctx, "COMMIT"); err != nil {
		err = fmt.Errorf("committing block move: %w", err)
		m.rollback(ctx, err)
		return err
	}

	m.tracker.set(src.PageID, src.Revision)
	m.tracker.set(tgt.PageID, tgt.Revision)
	m.events.publishChange(types.ChangeEvent{Kind: types.PageUpdated, PageID: src.PageID, Page: src})
	m.events.publishChange(types.ChangeEvent{Kind: types.PageUpdated, PageID: tgt.PageID, Page: tgt})
	return nil
}

// moveInTx runs the body of the transaction and returns the re-read rows.
func (m *blockMover) moveInTx(ctx context.Context, p MoveBlocksParams) (*types.Page, *types.Page, error) {
	src, err := m.readInTx(ctx, p.SourceID, "source")
	if err != nil {
		return nil, nil, err
	}
	tgt, err := m.readInTx(ctx, p.TargetID, "target")
	if err != nil {
		return nil, nil, err
	}

	// Precheck both revisions before touching either row, so a mismatch on
	// one side aborts with neither page changed.
	if expected := m.expectedRevision(p.SourceExpectedRevision, p.SourceID); expected != nil && src.Revision != *expected {
		return nil, nil, fmt.Errorf("source page %s: %w", p.SourceID, types.ErrRevisionConflict)
	}
	if expected := m.expectedRevision(p.TargetExpectedRevision, p.TargetID); expected != nil && tgt.Revision != *expected {
		return nil, nil, fmt.Errorf("target page %s: %w", p.TargetID, types.ErrRevisionConflict)
	}

	srcEnc, err := m.codec.EncodeFromDoc(p.SourceDoc)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding source document: %w", err)
	}
	tgtDec, err := m.codec.Decode(tgt.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding target document: %w", err)
	}
	tgtEnc, err := m.codec.EncodeFromDoc(append(tgtDec.Blocks, p.Blocks...))
	if err != nil {
		return nil, nil, fmt.Errorf("encoding target document: %w", err)
	}

	// Each update re-checks its own revision: defense in depth against a
	// writer that slipped in after the precheck.
	if err := m.updateInTx(ctx, src, srcEnc, "source"); err != nil {
		return nil, nil, err
	}
	if err := m.updateInTx(ctx, tgt, tgtEnc, "target"); err != nil {
		return nil, nil, err
	}

	src2, err := m.readInTx(ctx, p.SourceID, "source")
	if err != nil {
		return nil, nil, err
	}
	tgt2, err := m.readInTx(ctx, p.TargetID, "target")
	if err != nil {
		return nil, nil, err
	}
	return src2, tgt2, nil
}

func (m *blockMover) readInTx(ctx context.Context, id, role string) (*types.Page, error) {
	row, err := m.gw.Get(ctx, selectPage, id)
	if err != nil {
		return nil, fmt.Errorf("reading %s page %s: %w", role, id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("reading %s page %s: %w", role, id, types.ErrNotFound)
	}
	page, err := hydratePage(row)
	if err != nil {
		return nil, fmt.Errorf("reading %s page %s: %w", role, id, err)
	}
	return page, nil
}

func (m *blockMover) updateInTx(ctx context.Context, page *types.Page, enc types.Encoded, role string) error {
	res, err := m.gw.Run(ctx,
		"UPDATE pages SET content = ?, schema_version = ?, revision = revision + 1, updated_at = ? WHERE page_id = ? AND revision = ?",
		enc.Content, enc.SchemaVersion, m.clock.Now().UTC().Format(timeFormat), page.PageID, page.Revision,
	)
	if err != nil {
		return fmt.Errorf("updating %s page %s: %w", role, page.PageID, err)
	}
	if res.Changes == 0 {
		return fmt.Errorf("updating %s page %s: %w", role, page.PageID, types.ErrRevisionConflict)
	}
	return nil
}

// expectedRevision picks the explicit value when supplied, else the
// tracker's last-known value, else nil (no precheck).
func (m *blockMover) expectedRevision(explicit *int64, pageID string) *int64 {
	if explicit != nil {
		return explicit
	}
	if rev, ok := m.tracker.get(pageID); ok {
		return &rev
	}
	return nil
}

// rollback is best-effort; its own failure is logged and swallowed in
// favor of surfacing the primary error.
func (m *blockMover) rollback(ctx context.Context, primary error) {
	if _, err := m.gw.Run(ctx, "ROLLBACK"); err != nil {
		m.log.Warn().Err(err).AnErr("primary", primary).Msg("rollback after block move failure failed")
	}
}
