// Package pages implements the persistence and synchronization core for
// Leaflet page documents: optimistic-concurrency-controlled writes through
// an asynchronous storage gateway, coalesced auto-save with failure
// recovery, and atomic cross-page block moves.
package pages

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// Options configures a Service. Zero values fall back to the defaults in
// pkg/types.
type Options struct {
	DebounceInterval time.Duration
	RetryBase        time.Duration
	RetryMaxAttempts int
	Clock            Clock
	Logger           zerolog.Logger
}

// Service is the public surface of the persistence core. It owns the
// revision tracker, the save scheduler's timer maps, and the event
// notifier; nothing outside the Service mutates them.
type Service struct {
	repo      *repo
	scheduler *saveScheduler
	mover     *blockMover
	events    *notifier
}

// NewService wires a Service over the given gateway and content codec.
func NewService(gw types.Gateway, codec types.Codec, opts Options) *Service {
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = types.DefaultDebounceInterval
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = types.DefaultRetryBase
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = types.DefaultRetryMaxAttempts
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}

	tracker := newRevisionTracker()
	events := newNotifier()
	r := &repo{gw: gw, codec: codec, tracker: tracker, events: events, clock: opts.Clock}
	scheduler := newSaveScheduler(r, codec, tracker, events, opts.Clock, opts.Logger,
		opts.DebounceInterval, opts.RetryBase, opts.RetryMaxAttempts)
	mover := &blockMover{
		gw:      gw,
		codec:   codec,
		tracker: tracker,
		events:  events,
		clock:   opts.Clock,
		log:     opts.Logger,
		cancel:  scheduler.cancelPageWork,
		store:   &r.mu,
	}
	return &Service{repo: r, scheduler: scheduler, mover: mover, events: events}
}

// Close cancels every pending debounce and retry timer without flushing.
// Callers that cannot afford to lose unsaved edits must call
// FlushPendingSaves first.
func (s *Service) Close() {
	s.scheduler.close()
}

// Observer registration.

func (s *Service) OnPageChange(fn func(types.ChangeEvent)) { s.events.onChange(fn) }
func (s *Service) OnSaveState(fn func(types.SaveEvent))    { s.events.onSave(fn) }
func (s *Service) OnSaveComplete(fn func(pageID string))   { s.events.onSaveComplete(fn) }

// Repository operations. These surface errors directly to the caller so a
// user-initiated action can show feedback.

func (s *Service) CreatePage(ctx context.Context, parentID *string, title string) (*types.Page, error) {
	return s.repo.CreatePage(ctx, parentID, title)
}

func (s *Service) GetPage(ctx context.Context, id string) (*types.Page, error) {
	return s.repo.GetPage(ctx, id)
}

func (s *Service) ListRootPages(ctx context.Context) ([]*types.Page, error) {
	return s.repo.ListRootPages(ctx)
}

func (s *Service) ListChildren(ctx context.Context, parentID string) ([]*types.Page, error) {
	return s.repo.ListChildren(ctx, parentID)
}

func (s *Service) ListFavorites(ctx context.Context) ([]*types.Page, error) {
	return s.repo.ListFavorites(ctx)
}

func (s *Service) ListArchived(ctx context.Context) ([]*types.Page, error) {
	return s.repo.ListArchived(ctx)
}

func (s *Service) PageTree(ctx context.Context) ([]*types.PageNode, error) {
	return s.repo.PageTree(ctx)
}

func (s *Service) UpdatePage(ctx context.Context, id string, params types.UpdatePageParams) (*types.Page, error) {
	return s.repo.UpdatePage(ctx, id, params)
}

func (s *Service) AppendBlocks(ctx context.Context, id string, blocks []json.RawMessage) (*types.Page, error) {
	return s.repo.AppendBlocks(ctx, id, blocks)
}

func (s *Service) MovePage(ctx context.Context, id string, newParentID, afterSiblingID *string) (*types.Page, error) {
	return s.repo.MovePage(ctx, id, newParentID, afterSiblingID)
}

func (s *Service) ReorderPages(ctx context.Context, parentID *string, orderedIDs []string) error {
	return s.repo.ReorderPages(ctx, parentID, orderedIDs)
}

func (s *Service) DuplicatePage(ctx context.Context, id string) (*types.Page, error) {
	return s.repo.DuplicatePage(ctx, id)
}

// ArchivePage soft-deletes a page. Pending save and retry state for the
// page is dropped first so a late timer cannot revive it.
func (s *Service) ArchivePage(ctx context.Context, id string) (*types.Page, error) {
	s.scheduler.cancelPageWork(id)
	return s.repo.setArchived(ctx, id, true, types.PageDeleted)
}

// RestorePage clears the soft-delete flag.
func (s *Service) RestorePage(ctx context.Context, id string) (*types.Page, error) {
	return s.repo.setArchived(ctx, id, false, types.PageUpdated)
}

// DeletePage removes the row for good, along with any pending save, retry
// state, and tracker entry for the page.
func (s *Service) DeletePage(ctx context.Context, id string) error {
	s.scheduler.cancelPageWork(id)
	return s.repo.DeletePage(ctx, id)
}

// OpenPage reads a page and decodes its content for an editor. When the
// codec flags the stored payload as needing repair, the repaired encoding
// is written straight back under the revision just read, surfacing only
// save-lifecycle events tagged with the repair source. Returns (nil, zero,
// nil) when the page does not exist.
func (s *Service) OpenPage(ctx context.Context, id string) (*types.Page, types.Decoded, error) {
	page, err := s.repo.GetPage(ctx, id)
	if err != nil || page == nil {
		return page, types.Decoded{}, err
	}
	dec, err := s.repo.codec.Decode(page.Content)
	if err != nil {
		return page, types.Decoded{}, err
	}
	if !dec.NeedsRepair {
		return page, dec, nil
	}

	s.scheduler.attempt(ctx, id, dec.Repaired, &page.Revision, types.SourceRepair, false)

	page, err = s.repo.GetPage(ctx, id)
	if err != nil || page == nil {
		return page, types.Decoded{}, err
	}
	dec, err = s.repo.codec.Decode(page.Content)
	if err != nil {
		return page, types.Decoded{}, err
	}
	return page, dec, nil
}

// Auto-save surface. Failures on these paths become lifecycle events, not
// returned errors, so typing never throws.

func (s *Service) ScheduleContentSave(pageID, content string) error {
	return s.scheduler.ScheduleContentSave(pageID, content)
}

func (s *Service) FlushPendingSaves(ctx context.Context) {
	s.scheduler.FlushPendingSaves(ctx)
}

func (s *Service) PendingSaveCount() int {
	return s.scheduler.PendingSaveCount()
}

func (s *Service) HasPendingSave(pageID string) bool {
	return s.scheduler.HasPendingSave(pageID)
}

// MoveBlocksBetweenPages moves block nodes from one page's document to the
// end of another's, atomically across both rows.
func (s *Service) MoveBlocksBetweenPages(ctx context.Context, p MoveBlocksParams) error {
	return s.mover.MoveBlocks(ctx, p)
}
