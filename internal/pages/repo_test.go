package pages

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/leaflet/pkg/types"
)

func TestCreatePage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.CreatePage(ctx, nil, "First")
	require.NoError(t, err)
	assert.NotEmpty(t, a.PageID)
	assert.Nil(t, a.ParentID)
	assert.Equal(t, "First", a.Title)
	assert.Equal(t, int64(1), a.Revision)
	assert.Equal(t, float64(1), a.SortOrder)
	assert.NotEmpty(t, a.Content)

	b, err := h.svc.CreatePage(ctx, nil, "Second")
	require.NoError(t, err)
	assert.Equal(t, float64(2), b.SortOrder)

	child, err := h.svc.CreatePage(ctx, &a.PageID, "Child")
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, a.PageID, *child.ParentID)
	assert.Equal(t, float64(1), child.SortOrder)

	assert.Equal(t, 3, h.log.countChanges(types.PageCreated))
}

func TestGetPageAbsentIsNotAnError(t *testing.T) {
	h := newHarness(t)

	page, err := h.svc.GetPage(context.Background(), "no-such-page")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestUpdatePageDynamicFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)
	createdUpdatedAt := page.UpdatedAt

	h.clk.Advance(time.Second)

	updated, err := h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{
		Title: strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, int64(2), updated.Revision)
	assert.True(t, updated.UpdatedAt.After(createdUpdatedAt))
	// Untouched fields survive.
	assert.Equal(t, page.Content, updated.Content)
	assert.False(t, updated.IsFavorited)

	fav := true
	updated, err = h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{
		IsFavorited: &fav,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Revision)
	assert.True(t, updated.IsFavorited)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestUpdatePageNoFieldsIsNoOp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)

	same, err := h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), same.Revision)
	assert.Equal(t, page.UpdatedAt, same.UpdatedAt)
}

func TestUpdatePageRevisionConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)

	_, err = h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{
		Title:            strPtr("stale writer"),
		ExpectedRevision: revPtr(99),
	})
	require.ErrorIs(t, err, types.ErrRevisionConflict)

	// The row was not mutated.
	current, err := h.svc.GetPage(ctx, page.PageID)
	require.NoError(t, err)
	assert.Equal(t, "Notes", current.Title)
	assert.Equal(t, int64(1), current.Revision)
}

func TestUpdatePageNullableColumns(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)

	withIcon, err := h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{
		Icon: strPtr("📄"),
	})
	require.NoError(t, err)
	require.NotNil(t, withIcon.Icon)
	assert.Equal(t, "📄", *withIcon.Icon)

	cleared, err := h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{
		Icon: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Icon)
}

func TestAppendBlocks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)

	content := docWith(t, block("one"))
	_, err = h.svc.UpdatePage(ctx, page.PageID, types.UpdatePageParams{Content: &content})
	require.NoError(t, err)

	updated, err := h.svc.AppendBlocks(ctx, page.PageID, []json.RawMessage{block("two"), block("three")})
	require.NoError(t, err)

	blocks := decodeBlocks(t, updated.Content)
	require.Len(t, blocks, 3)
	assert.JSONEq(t, string(block("one")), string(blocks[0]))
	assert.JSONEq(t, string(block("three")), string(blocks[2]))
	assert.Equal(t, int64(3), updated.Revision)
}

func TestAppendBlocksMissingPage(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.AppendBlocks(context.Background(), "no-such-page", []json.RawMessage{block("x")})
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestMovePageAppend(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.CreatePage(ctx, nil, "A")
	require.NoError(t, err)
	_, err = h.svc.CreatePage(ctx, nil, "B")
	require.NoError(t, err)
	_, err = h.svc.CreatePage(ctx, nil, "C")
	require.NoError(t, err)

	child, err := h.svc.CreatePage(ctx, &a.PageID, "Child")
	require.NoError(t, err)

	// Root siblings have max order 3; appending lands at 4.
	moved, err := h.svc.MovePage(ctx, child.PageID, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, float64(4), moved.SortOrder)
	assert.Equal(t, 1, h.log.countChanges(types.PageMoved))
}

func TestMovePageAfterSibling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.CreatePage(ctx, nil, "A") // order 1
	require.NoError(t, err)
	_, err = h.svc.CreatePage(ctx, nil, "B") // order 2
	require.NoError(t, err)
	c, err := h.svc.CreatePage(ctx, nil, "C") // order 3
	require.NoError(t, err)

	// Insert C between A and B: midpoint of 1 and 2.
	moved, err := h.svc.MovePage(ctx, c.PageID, nil, &a.PageID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, moved.SortOrder)
}

func TestMovePageAfterLastSibling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreatePage(ctx, nil, "A") // order 1
	require.NoError(t, err)
	b, err := h.svc.CreatePage(ctx, nil, "B") // order 2
	require.NoError(t, err)
	c, err := h.svc.CreatePage(ctx, nil, "C") // order 3
	require.NoError(t, err)

	// B is the last sibling once C is excluded; landing after it means
	// one past its order.
	moved, err := h.svc.MovePage(ctx, c.PageID, nil, &b.PageID)
	require.NoError(t, err)
	assert.Equal(t, float64(3), moved.SortOrder)
}

func TestMovePageMissingSiblingFallsBackToAppend(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreatePage(ctx, nil, "A")
	require.NoError(t, err)
	b, err := h.svc.CreatePage(ctx, nil, "B")
	require.NoError(t, err)

	gone := "no-such-sibling"
	moved, err := h.svc.MovePage(ctx, b.PageID, nil, &gone)
	require.NoError(t, err)
	assert.Equal(t, float64(2), moved.SortOrder)
}

func TestReorderPages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.CreatePage(ctx, nil, "A")
	require.NoError(t, err)
	b, err := h.svc.CreatePage(ctx, nil, "B")
	require.NoError(t, err)
	h.log.reset()

	require.NoError(t, h.svc.ReorderPages(ctx, nil, []string{b.PageID, a.PageID}))

	a2, err := h.svc.GetPage(ctx, a.PageID)
	require.NoError(t, err)
	b2, err := h.svc.GetPage(ctx, b.PageID)
	require.NoError(t, err)
	assert.Equal(t, float64(2), a2.SortOrder)
	assert.Equal(t, float64(1), b2.SortOrder)

	// One coarse event for the whole batch, referencing the first id.
	assert.Equal(t, []types.ChangeKind{types.PageReordered}, h.log.changeKinds())
	assert.Equal(t, b.PageID, h.log.changes[0].PageID)
}

func TestArchiveAndRestore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Notes")
	require.NoError(t, err)

	archived, err := h.svc.ArchivePage(ctx, page.PageID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	roots, err := h.svc.ListRootPages(ctx)
	require.NoError(t, err)
	assert.Empty(t, roots)

	bin, err := h.svc.ListArchived(ctx)
	require.NoError(t, err)
	require.Len(t, bin, 1)
	assert.Equal(t, page.PageID, bin[0].PageID)

	restored, err := h.svc.RestorePage(ctx, page.PageID)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)

	roots, err = h.svc.ListRootPages(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
}

func TestDeletePageCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	parent, err := h.svc.CreatePage(ctx, nil, "Parent")
	require.NoError(t, err)
	child, err := h.svc.CreatePage(ctx, &parent.PageID, "Child")
	require.NoError(t, err)

	require.NoError(t, h.svc.DeletePage(ctx, parent.PageID))

	gone, err := h.svc.GetPage(ctx, child.PageID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.ErrorIs(t, h.svc.DeletePage(ctx, parent.PageID), types.ErrNotFound)
}

func TestListFavorites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreatePage(ctx, nil, "Plain")
	require.NoError(t, err)
	fav, err := h.svc.CreatePage(ctx, nil, "Starred")
	require.NoError(t, err)

	on := true
	_, err = h.svc.UpdatePage(ctx, fav.PageID, types.UpdatePageParams{IsFavorited: &on})
	require.NoError(t, err)

	favs, err := h.svc.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, fav.PageID, favs[0].PageID)
}

func TestDuplicatePage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.CreatePage(ctx, nil, "A")
	require.NoError(t, err)
	b, err := h.svc.CreatePage(ctx, &a.PageID, "B")
	require.NoError(t, err)
	_, err = h.svc.CreatePage(ctx, &a.PageID, "C")
	require.NoError(t, err)
	_, err = h.svc.CreatePage(ctx, &b.PageID, "D")
	require.NoError(t, err)

	on := true
	_, err = h.svc.UpdatePage(ctx, a.PageID, types.UpdatePageParams{IsFavorited: &on, IsLocked: &on})
	require.NoError(t, err)
	h.log.reset()

	copyRoot, err := h.svc.DuplicatePage(ctx, a.PageID)
	require.NoError(t, err)

	// Three descendants means four new pages in total.
	assert.Equal(t, 4, h.log.countChanges(types.PageCreated))
	assert.Equal(t, "Copy of A", copyRoot.Title)
	assert.NotEqual(t, a.PageID, copyRoot.PageID)
	assert.Equal(t, int64(1), copyRoot.Revision)
	// Favorite and lock flags reset on the copy.
	assert.False(t, copyRoot.IsFavorited)
	assert.False(t, copyRoot.IsLocked)
	// The copy lands after the original among its siblings.
	assert.Equal(t, float64(2), copyRoot.SortOrder)

	children, err := h.svc.ListChildren(ctx, copyRoot.PageID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "B", children[0].Title)
	assert.Equal(t, "C", children[1].Title)

	grand, err := h.svc.ListChildren(ctx, children[0].PageID)
	require.NoError(t, err)
	require.Len(t, grand, 1)
	assert.Equal(t, "D", grand[0].Title)
}

func TestOpenPageRepairsLegacyContent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.svc.CreatePage(ctx, nil, "Old")
	require.NoError(t, err)

	// Plant a legacy bare-array payload behind the service's back.
	legacy := `[{"type":"paragraph","text":"hello"}]`
	_, err = h.gw.Run(ctx,
		"UPDATE pages SET content = ?, schema_version = 1 WHERE page_id = ?",
		legacy, page.PageID)
	require.NoError(t, err)
	h.log.reset()

	opened, dec, err := h.svc.OpenPage(ctx, page.PageID)
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.False(t, dec.NeedsRepair)
	require.Len(t, dec.Blocks, 1)
	assert.Greater(t, opened.SchemaVersion, 1)
	assert.Equal(t, int64(2), opened.Revision)

	// The writeback surfaced as repair-tagged lifecycle events.
	last, ok := h.log.lastSave()
	require.True(t, ok)
	assert.Equal(t, types.SaveSaved, last.State)
	assert.Equal(t, types.SourceRepair, last.Source)
}
