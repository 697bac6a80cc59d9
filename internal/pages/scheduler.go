package pages

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// saveScheduler coalesces rapid content edits into one debounced write per
// page and runs the exponential-backoff retry queue for writes that fail
// for reasons other than a revision conflict. Failures from its own timers
// never propagate to a caller; they become lifecycle events.
type saveScheduler struct {
	mu         sync.Mutex
	repo       *repo
	codec      types.Codec
	tracker    *revisionTracker
	events     *notifier
	clock      Clock
	log        zerolog.Logger
	debounce   time.Duration
	retryBase  time.Duration
	maxRetries int
	pending    map[string]*pendingSave
	retries    map[string]*retrySave
	closed     bool
}

// pendingSave is one armed debounce entry: the normalized content and the
// expected revision captured at scheduling time.
type pendingSave struct {
	content  string
	expected *int64
	timer    Timer
}

// retrySave is one entry in the retry queue.
type retrySave struct {
	content string
	attempt int
	timer   Timer
}

func newSaveScheduler(r *repo, codec types.Codec, tracker *revisionTracker, events *notifier,
	clock Clock, log zerolog.Logger, debounce, retryBase time.Duration, maxRetries int) *saveScheduler {
	return &saveScheduler{
		repo:       r,
		codec:      codec,
		tracker:    tracker,
		events:     events,
		clock:      clock,
		log:        log,
		debounce:   debounce,
		retryBase:  retryBase,
		maxRetries: maxRetries,
		pending:    make(map[string]*pendingSave),
		retries:    make(map[string]*retrySave),
	}
}

// ScheduleContentSave arms (or re-arms) the debounce timer for pageID with
// the given content. Any earlier pending save or in-flight retry for the
// page is canceled first: the latest edit always wins. The revision the
// tracker holds right now becomes the expected revision for this save.
func (s *saveScheduler) ScheduleContentSave(pageID, content string) error {
	if pageID == "" {
		return types.ErrInvalidID
	}
	enc, err := s.codec.NormalizeForStorage(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.cancelPendingLocked(pageID)
	s.cancelRetryLocked(pageID)

	ps := &pendingSave{content: enc.Content}
	if rev, ok := s.tracker.get(pageID); ok {
		ps.expected = &rev
	}
	ps.timer = s.clock.AfterFunc(s.debounce, func() {
		s.flushOne(pageID)
	})
	s.pending[pageID] = ps
	s.mu.Unlock()

	s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SavePending, Source: types.SourceDebounce})
	return nil
}

// flushOne runs when a debounce timer fires.
func (s *saveScheduler) flushOne(pageID string) {
	s.mu.Lock()
	ps, ok := s.pending[pageID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, pageID)
	s.mu.Unlock()

	s.attempt(context.Background(), pageID, ps.content, ps.expected, types.SourceDebounce, true)
}

// FlushPendingSaves cancels every pending debounce timer and performs each
// page's write immediately. The retry queue is left alone. Individual
// failures emit Failed and do not stop the remaining flushes.
func (s *saveScheduler) FlushPendingSaves(ctx context.Context) {
	s.mu.Lock()
	taken := s.pending
	s.pending = make(map[string]*pendingSave)
	for _, ps := range taken {
		ps.timer.Stop()
	}
	s.mu.Unlock()

	for pageID, ps := range taken {
		s.attempt(ctx, pageID, ps.content, ps.expected, types.SourceFlush, false)
	}
}

// attempt performs one save write and converts the outcome into lifecycle
// events. A revision conflict re-reads the page to refresh the tracker and
// fails without retrying: writing the same stale content again would only
// conflict again. Other failures enter the retry queue when allowRetry is
// set. The write runs under the repo's operation lock, since attempt is
// reached from timer goroutines and must never interleave with another
// operation's statements.
func (s *saveScheduler) attempt(ctx context.Context, pageID, content string, expected *int64, source types.SaveSource, allowRetry bool) {
	s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SaveFlushing, Source: source})

	s.repo.mu.Lock()
	_, err := s.repo.update(ctx, pageID, types.UpdatePageParams{
		Content:          &content,
		ExpectedRevision: expected,
	}, types.PageUpdated)
	if err != nil && errors.Is(err, types.ErrRevisionConflict) {
		s.refreshTracker(ctx, pageID)
	}
	s.repo.mu.Unlock()

	if err == nil {
		s.events.publishSaveComplete(pageID)
		s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SaveSaved, Source: source})
		return
	}

	if errors.Is(err, types.ErrRevisionConflict) {
		s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SaveFailed, Source: source, Err: err.Error()})
		return
	}

	if !allowRetry {
		s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SaveFailed, Source: source, Err: err.Error()})
		return
	}
	s.scheduleRetry(pageID, content, 0, err)
}

// scheduleRetry arms the next retry attempt with delay retryBase * 2^attempt,
// or emits the terminal Failed event once the attempt bound is reached. The
// exhausted save is reported, not fatal: the user's latest content still
// lives in the editor.
func (s *saveScheduler) scheduleRetry(pageID, content string, attempt int, cause error) {
	if attempt >= s.maxRetries {
		s.mu.Lock()
		delete(s.retries, pageID)
		s.mu.Unlock()
		s.log.Error().Str("page_id", pageID).Err(cause).Msg("save retries exhausted")
		s.events.publishSave(types.SaveEvent{
			PageID: pageID,
			State:  types.SaveFailed,
			Source: types.SourceDebounce,
			Err:    types.ErrRetryExhausted.Error(),
		})
		return
	}

	delay := s.retryBase * time.Duration(1<<attempt)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelRetryLocked(pageID)
	rs := &retrySave{content: content, attempt: attempt}
	rs.timer = s.clock.AfterFunc(delay, func() {
		s.runRetry(pageID)
	})
	s.retries[pageID] = rs
	s.mu.Unlock()

	s.log.Debug().Str("page_id", pageID).Int("attempt", attempt).Dur("delay", delay).Msg("save retry scheduled")
	s.events.publishSave(types.SaveEvent{
		PageID: pageID,
		State:  types.SaveRetrying,
		Source: types.SourceDebounce,
		Err:    cause.Error(),
	})
}

// runRetry performs one retry attempt. The expected revision is re-read
// from the tracker so a flush or another save landing meanwhile is picked
// up. A conflict here refreshes the tracker and schedules the next attempt
// anyway: once in a retry loop, conflicts are treated as possibly
// transient, and only success or exhaustion ends the sequence.
func (s *saveScheduler) runRetry(pageID string) {
	s.mu.Lock()
	rs, ok := s.retries[pageID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.retries, pageID)
	s.mu.Unlock()

	ctx := context.Background()

	s.repo.mu.Lock()
	var expected *int64
	if rev, ok := s.tracker.get(pageID); ok {
		expected = &rev
	}
	_, err := s.repo.update(ctx, pageID, types.UpdatePageParams{
		Content:          &rs.content,
		ExpectedRevision: expected,
	}, types.PageUpdated)
	if err != nil && errors.Is(err, types.ErrRevisionConflict) {
		s.refreshTracker(ctx, pageID)
	}
	s.repo.mu.Unlock()

	if err == nil {
		s.events.publishSaveComplete(pageID)
		s.events.publishSave(types.SaveEvent{PageID: pageID, State: types.SaveSaved, Source: types.SourceDebounce})
		return
	}
	s.scheduleRetry(pageID, rs.content, rs.attempt+1, err)
}

// refreshTracker re-reads a page purely for the tracker side effect. The
// caller holds the repo's operation lock.
func (s *saveScheduler) refreshTracker(ctx context.Context, pageID string) {
	if _, err := s.repo.getPage(ctx, pageID); err != nil {
		s.log.Warn().Str("page_id", pageID).Err(err).Msg("refreshing revision after conflict failed")
	}
}

// PendingSaveCount returns the number of pages with an armed debounce timer.
func (s *saveScheduler) PendingSaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// HasPendingSave reports whether a debounced save is armed for pageID.
func (s *saveScheduler) HasPendingSave(pageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[pageID]
	return ok
}

// cancelPageWork drops any pending save and retry state for a page. Called
// before deletes, archives, and cross-page moves so a late-firing timer
// cannot write to a row that is going away or mid-transaction.
func (s *saveScheduler) cancelPageWork(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked(pageID)
	s.cancelRetryLocked(pageID)
}

func (s *saveScheduler) cancelPendingLocked(pageID string) {
	if ps, ok := s.pending[pageID]; ok {
		ps.timer.Stop()
		delete(s.pending, pageID)
	}
}

func (s *saveScheduler) cancelRetryLocked(pageID string) {
	if rs, ok := s.retries[pageID]; ok {
		rs.timer.Stop()
		delete(s.retries, pageID)
	}
}

// close cancels every timer without flushing. Unsaved edits are lost unless
// the caller flushed first; that ordering is the caller's responsibility.
func (s *saveScheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ps := range s.pending {
		ps.timer.Stop()
		delete(s.pending, id)
	}
	for id, rs := range s.retries {
		rs.timer.Stop()
		delete(s.retries, id)
	}
}
