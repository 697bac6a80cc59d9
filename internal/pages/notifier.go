package pages

import (
	"sync"

	"github.com/inkwellhq/leaflet/pkg/types"
)

// notifier fans entity-change and save-lifecycle events out to registered
// observers. Handlers run synchronously on the publishing goroutine, in
// registration order.
type notifier struct {
	mu        sync.RWMutex
	changeFns []func(types.ChangeEvent)
	saveFns   []func(types.SaveEvent)
	doneFns   []func(pageID string)
}

func newNotifier() *notifier {
	return &notifier{}
}

func (n *notifier) onChange(fn func(types.ChangeEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changeFns = append(n.changeFns, fn)
}

func (n *notifier) onSave(fn func(types.SaveEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saveFns = append(n.saveFns, fn)
}

func (n *notifier) onSaveComplete(fn func(pageID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.doneFns = append(n.doneFns, fn)
}

func (n *notifier) publishChange(ev types.ChangeEvent) {
	n.mu.RLock()
	fns := n.changeFns
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (n *notifier) publishSave(ev types.SaveEvent) {
	n.mu.RLock()
	fns := n.saveFns
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (n *notifier) publishSaveComplete(pageID string) {
	n.mu.RLock()
	fns := n.doneFns
	n.mu.RUnlock()
	for _, fn := range fns {
		fn(pageID)
	}
}
