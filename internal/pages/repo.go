package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// pageColumns is the select list for hydrating a full page row.
const pageColumns = "page_id, parent_id, title, icon, content, schema_version, revision, " +
	"sort_order, is_archived, cover_url, cover_y_offset, font_family, full_width, " +
	"small_text, is_locked, is_favorited, created_at, updated_at"

const selectPage = "SELECT " + pageColumns + " FROM pages WHERE page_id = ?"

// timeFormat is the stored timestamp layout.
const timeFormat = time.RFC3339Nano

// repo implements the page CRUD operations over the gateway. Every
// successful read or write refreshes the revision tracker for the pages it
// touched.
type repo struct {
	// mu serializes whole operations against the single-connection
	// gateway. Every public repo method, every timer-driven scheduler
	// write, and the block mover's entire transaction hold it, so a
	// statement issued from another goroutine can never land inside an
	// open transaction. Internal helpers run under a lock already held by
	// their caller.
	mu sync.Mutex

	gw      types.Gateway
	codec   types.Codec
	tracker *revisionTracker
	events  *notifier
	clock   Clock
}

// newPageID generates a UUID v7 page identifier, falling back to v4 if v7
// generation fails.
func newPageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (r *repo) now() string {
	return r.clock.Now().UTC().Format(timeFormat)
}

// CreatePage inserts a new page under parentID (nil for root level) with an
// empty document, placing it after the current last sibling.
func (r *repo) CreatePage(ctx context.Context, parentID *string, title string) (*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.nextSiblingOrder(ctx, parentID)
	if err != nil {
		return nil, err
	}
	empty, err := r.codec.EncodeFromDoc(nil)
	if err != nil {
		return nil, fmt.Errorf("encoding empty document: %w", err)
	}

	id := newPageID()
	now := r.now()
	_, err = r.gw.Run(ctx,
		`INSERT INTO pages (page_id, parent_id, title, content, schema_version, revision,
		                    sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		id, nullableID(parentID), title, empty.Content, empty.SchemaVersion, order, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting page: %w", err)
	}

	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	r.events.publishChange(types.ChangeEvent{Kind: types.PageCreated, PageID: id, Page: page})
	return page, nil
}

// GetPage returns the page with the given id, or (nil, nil) when it does
// not exist. A successful read refreshes the revision tracker.
func (r *repo) GetPage(ctx context.Context, id string) (*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getPage(ctx, id)
}

// getPage is GetPage for callers already holding the operation lock.
func (r *repo) getPage(ctx context.Context, id string) (*types.Page, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row, err := r.gw.Get(ctx, selectPage, id)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	page, err := hydratePage(row)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", id, err)
	}
	r.tracker.set(page.PageID, page.Revision)
	return page, nil
}

// requirePage reads a page that must exist; absence is an invariant
// violation surfaced as ErrNotFound.
func (r *repo) requirePage(ctx context.Context, id string) (*types.Page, error) {
	page, err := r.getPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("reading page %s: %w", id, types.ErrNotFound)
	}
	return page, nil
}

// ListRootPages returns the non-archived root-level pages in sibling order.
func (r *repo) ListRootPages(ctx context.Context) ([]*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE parent_id IS NULL AND is_archived = 0 ORDER BY sort_order")
}

// ListChildren returns the non-archived children of parentID in sibling order.
func (r *repo) ListChildren(ctx context.Context, parentID string) ([]*types.Page, error) {
	if parentID == "" {
		return nil, types.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.childrenOf(ctx, parentID)
}

// childrenOf is ListChildren for callers already holding the operation lock.
func (r *repo) childrenOf(ctx context.Context, parentID string) ([]*types.Page, error) {
	return r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE parent_id = ? AND is_archived = 0 ORDER BY sort_order",
		parentID)
}

// ListFavorites returns the non-archived favorited pages in sibling order.
func (r *repo) ListFavorites(ctx context.Context) ([]*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE is_favorited = 1 AND is_archived = 0 ORDER BY sort_order")
}

// ListArchived returns archived pages, most recently updated first.
func (r *repo) ListArchived(ctx context.Context) ([]*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE is_archived = 1 ORDER BY updated_at DESC")
}

// PageTree assembles all non-archived pages into a forest.
func (r *repo) PageTree(ctx context.Context) ([]*types.PageNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE is_archived = 0 ORDER BY sort_order")
	if err != nil {
		return nil, err
	}
	return BuildTree(all), nil
}

func (r *repo) list(ctx context.Context, stmt string, args ...any) ([]*types.Page, error) {
	rows, err := r.gw.All(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	pages := make([]*types.Page, 0, len(rows))
	for _, row := range rows {
		page, err := hydratePage(row)
		if err != nil {
			return nil, fmt.Errorf("listing pages: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// fieldSet accumulates the SET clause of a dynamic update.
type fieldSet struct {
	exprs []string
	args  []any
}

func (f *fieldSet) add(col string, v any) {
	f.exprs = append(f.exprs, col+" = ?")
	f.args = append(f.args, v)
}

func (f *fieldSet) raw(expr string) {
	f.exprs = append(f.exprs, expr)
}

func (f *fieldSet) empty() bool { return len(f.exprs) == 0 }

// UpdatePage applies the supplied fields to a page, bumping its revision.
func (r *repo) UpdatePage(ctx context.Context, id string, params types.UpdatePageParams) (*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.update(ctx, id, params, types.PageUpdated)
}

// update builds a dynamic field set from the params and executes the write.
// A no-op update (no fields supplied) returns the current page unchanged.
// When ExpectedRevision is set and no row was affected, the write reports
// ErrRevisionConflict; without an expected revision a zero-row update means
// the page does not exist.
func (r *repo) update(ctx context.Context, id string, params types.UpdatePageParams, kind types.ChangeKind) (*types.Page, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if params.IsEmpty() {
		return r.getPage(ctx, id)
	}

	var fs fieldSet
	if params.Title != nil {
		fs.add("title", *params.Title)
	}
	if params.Icon != nil {
		fs.add("icon", nullableText(*params.Icon))
	}
	if params.Content != nil {
		enc, err := r.codec.NormalizeForStorage(*params.Content)
		if err != nil {
			return nil, fmt.Errorf("normalizing content for page %s: %w", id, err)
		}
		fs.add("content", enc.Content)
		fs.add("schema_version", enc.SchemaVersion)
	}
	if params.CoverURL != nil {
		fs.add("cover_url", nullableText(*params.CoverURL))
	}
	if params.CoverYOffset != nil {
		fs.add("cover_y_offset", *params.CoverYOffset)
	}
	if params.FontFamily != nil {
		fs.add("font_family", *params.FontFamily)
	}
	if params.FullWidth != nil {
		fs.add("full_width", boolToInt(*params.FullWidth))
	}
	if params.SmallText != nil {
		fs.add("small_text", boolToInt(*params.SmallText))
	}
	if params.IsLocked != nil {
		fs.add("is_locked", boolToInt(*params.IsLocked))
	}
	if params.IsFavorited != nil {
		fs.add("is_favorited", boolToInt(*params.IsFavorited))
	}

	// Every non-empty field set also advances the revision and refreshes
	// the updated timestamp.
	fs.raw("revision = revision + 1")
	fs.add("updated_at", r.now())

	stmt := "UPDATE pages SET " + strings.Join(fs.exprs, ", ") + " WHERE page_id = ?"
	args := append(fs.args, id)
	if params.ExpectedRevision != nil {
		stmt += " AND revision = ?"
		args = append(args, *params.ExpectedRevision)
	}

	res, err := r.gw.Run(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("updating page %s: %w", id, err)
	}
	if res.Changes == 0 {
		if params.ExpectedRevision != nil {
			return nil, fmt.Errorf("updating page %s: %w", id, types.ErrRevisionConflict)
		}
		return nil, fmt.Errorf("updating page %s: %w", id, types.ErrNotFound)
	}

	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	r.events.publishChange(types.ChangeEvent{Kind: kind, PageID: id, Page: page})
	return page, nil
}

// AppendBlocks decodes the page's current content, appends the given block
// nodes, and writes the combined document back under the last revision the
// tracker saw, so a stale in-memory copy cannot silently overwrite a newer
// one.
func (r *repo) AppendBlocks(ctx context.Context, id string, blocks []json.RawMessage) (*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	dec, err := r.codec.Decode(page.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding content for page %s: %w", id, err)
	}
	enc, err := r.codec.EncodeFromDoc(append(dec.Blocks, blocks...))
	if err != nil {
		return nil, fmt.Errorf("encoding content for page %s: %w", id, err)
	}

	expected, _ := r.tracker.get(id)
	content := enc.Content
	return r.update(ctx, id, types.UpdatePageParams{
		Content:          &content,
		ExpectedRevision: &expected,
	}, types.PageUpdated)
}

// MovePage reparents a page and recomputes its sibling position. Placement
// only touches parent_id and sort_order, so the write carries no expected
// revision; the revision still advances.
func (r *repo) MovePage(ctx context.Context, id string, newParentID, afterSiblingID *string) (*types.Page, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.placementOrder(ctx, newParentID, afterSiblingID, id)
	if err != nil {
		return nil, err
	}
	res, err := r.gw.Run(ctx,
		"UPDATE pages SET parent_id = ?, sort_order = ?, revision = revision + 1, updated_at = ? WHERE page_id = ?",
		nullableID(newParentID), order, r.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("moving page %s: %w", id, err)
	}
	if res.Changes == 0 {
		return nil, fmt.Errorf("moving page %s: %w", id, types.ErrNotFound)
	}

	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	r.events.publishChange(types.ChangeEvent{Kind: types.PageMoved, PageID: id, Page: page})
	return page, nil
}

// placementOrder computes the sort order for a page landing among the
// children of parentID: after the named sibling when found, at the
// arithmetic midpoint when that sibling has a successor, appended past the
// last sibling otherwise. The moving page itself never counts as a sibling.
func (r *repo) placementOrder(ctx context.Context, parentID, afterSiblingID *string, movingID string) (float64, error) {
	siblings, err := r.list(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE parent_id IS ? AND is_archived = 0 AND page_id <> ? ORDER BY sort_order",
		nullableID(parentID), movingID)
	if err != nil {
		return 0, err
	}
	if len(siblings) == 0 {
		return 1, nil
	}
	last := siblings[len(siblings)-1]
	if afterSiblingID == nil {
		return last.SortOrder + 1, nil
	}
	for i, sib := range siblings {
		if sib.PageID != *afterSiblingID {
			continue
		}
		if i == len(siblings)-1 {
			return sib.SortOrder + 1, nil
		}
		return (sib.SortOrder + siblings[i+1].SortOrder) / 2, nil
	}
	// Requested sibling is gone; fall back to appending.
	return last.SortOrder + 1, nil
}

// ReorderPages assigns sequential sort orders 1..N to the given ids under
// parentID. One Reordered event fires for the whole batch, referencing the
// first id (or none); consumers reload the sibling list rather than track
// per-item moves.
func (r *repo) ReorderPages(ctx context.Context, parentID *string, orderedIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for i, id := range orderedIDs {
		res, err := r.gw.Run(ctx,
			"UPDATE pages SET sort_order = ?, revision = revision + 1, updated_at = ? WHERE page_id = ? AND parent_id IS ?",
			float64(i+1), now, id, nullableID(parentID),
		)
		if err != nil {
			return fmt.Errorf("reordering page %s: %w", id, err)
		}
		if res.Changes > 0 {
			if rev, ok := r.tracker.get(id); ok {
				r.tracker.set(id, rev+1)
			}
		}
	}

	first := ""
	if len(orderedIDs) > 0 {
		first = orderedIDs[0]
	}
	r.events.publishChange(types.ChangeEvent{Kind: types.PageReordered, PageID: first})
	return nil
}

// setArchived flips the soft-delete flag.
func (r *repo) setArchived(ctx context.Context, id string, archived bool, kind types.ChangeKind) (*types.Page, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.gw.Run(ctx,
		"UPDATE pages SET is_archived = ?, revision = revision + 1, updated_at = ? WHERE page_id = ?",
		boolToInt(archived), r.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("archiving page %s: %w", id, err)
	}
	if res.Changes == 0 {
		return nil, fmt.Errorf("archiving page %s: %w", id, types.ErrNotFound)
	}
	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	r.events.publishChange(types.ChangeEvent{Kind: kind, PageID: id, Page: page})
	return page, nil
}

// DeletePage removes the row; the storage schema cascades to descendants.
// The tracker entry goes away with the row.
func (r *repo) DeletePage(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.gw.Run(ctx, "DELETE FROM pages WHERE page_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting page %s: %w", id, err)
	}
	if res.Changes == 0 {
		return fmt.Errorf("deleting page %s: %w", id, types.ErrNotFound)
	}
	r.tracker.clear(id)
	r.events.publishChange(types.ChangeEvent{Kind: types.PageDeleted, PageID: id})
	return nil
}

// DuplicatePage deep-copies a page and all of its descendants under new
// ids. The root copy's title gains a "Copy of " prefix and lands after the
// original's last sibling; descendant titles and positions are preserved.
// Favorite and lock flags reset on every copy.
func (r *repo) DuplicatePage(ctx context.Context, id string) (*types.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orig, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := r.nextSiblingOrder(ctx, orig.ParentID)
	if err != nil {
		return nil, err
	}
	return r.duplicateSubtree(ctx, orig, orig.ParentID, "Copy of "+orig.Title, order)
}

func (r *repo) duplicateSubtree(ctx context.Context, src *types.Page, parentID *string, title string, order float64) (*types.Page, error) {
	id := newPageID()
	now := r.now()
	_, err := r.gw.Run(ctx,
		`INSERT INTO pages (page_id, parent_id, title, icon, content, schema_version, revision,
		                    sort_order, cover_url, cover_y_offset, font_family, full_width,
		                    small_text, is_locked, is_favorited, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		id, nullableID(parentID), title, nullableIDValue(src.Icon), src.Content, src.SchemaVersion,
		order, nullableIDValue(src.CoverURL), src.CoverYOffset, src.FontFamily,
		boolToInt(src.FullWidth), boolToInt(src.SmallText), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("duplicating page %s: %w", src.PageID, err)
	}

	page, err := r.requirePage(ctx, id)
	if err != nil {
		return nil, err
	}
	r.events.publishChange(types.ChangeEvent{Kind: types.PageCreated, PageID: id, Page: page})

	children, err := r.childrenOf(ctx, src.PageID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if _, err := r.duplicateSubtree(ctx, child, &id, child.Title, child.SortOrder); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// nextSiblingOrder returns one past the highest sort order among the
// non-archived children of parentID, or 1 when there are none.
func (r *repo) nextSiblingOrder(ctx context.Context, parentID *string) (float64, error) {
	row, err := r.gw.Get(ctx,
		"SELECT COALESCE(MAX(sort_order), 0) + 1 AS next_order FROM pages WHERE parent_id IS ? AND is_archived = 0",
		nullableID(parentID))
	if err != nil {
		return 0, fmt.Errorf("computing sibling order: %w", err)
	}
	if row == nil {
		return 1, nil
	}
	return rowFloat(row, "next_order"), nil
}

// nullableID converts an optional id into a bindable value.
func nullableID(id *string) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullableIDValue binds an optional column value carried on a page snapshot.
func nullableIDValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableText maps the empty string to NULL for nullable text columns.
func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
