package pages

import "sync"

// revisionTracker caches the last persisted revision seen per page. It is a
// pure cache: populated whenever a page is fetched or successfully written,
// cleared on hard delete, and never itself contacts storage. Scheduled
// saves read it to supply an expected revision when the caller did not.
type revisionTracker struct {
	mu        sync.Mutex
	revisions map[string]int64
}

func newRevisionTracker() *revisionTracker {
	return &revisionTracker{revisions: make(map[string]int64)}
}

func (t *revisionTracker) get(pageID string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rev, ok := t.revisions[pageID]
	return rev, ok
}

func (t *revisionTracker) set(pageID string, revision int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revisions[pageID] = revision
}

func (t *revisionTracker) clear(pageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.revisions, pageID)
}
