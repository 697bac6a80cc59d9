package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/leaflet/internal/codec"
	"github.com/inkwellhq/leaflet/internal/sqlite"
	"github.com/inkwellhq/leaflet/pkg/types"
)

// manualClock is a virtual clock: timers fire synchronously when Advance
// crosses their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clk      *manualClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clk: c, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires every due timer.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.deadline.After(c.now):
			t.stopped = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// flakyGateway fails the next N UPDATE statements with a non-conflict
// statement error, then behaves normally.
type flakyGateway struct {
	inner types.Gateway
	mu    sync.Mutex
	fails int
}

func (g *flakyGateway) failNext(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fails = n
}

func (g *flakyGateway) Run(ctx context.Context, stmt string, args ...any) (types.RunResult, error) {
	if strings.HasPrefix(strings.TrimSpace(stmt), "UPDATE") {
		g.mu.Lock()
		shouldFail := g.fails > 0
		if shouldFail {
			g.fails--
		}
		g.mu.Unlock()
		if shouldFail {
			return types.RunResult{}, &types.StatementError{Code: 5, Message: "database is locked"}
		}
	}
	return g.inner.Run(ctx, stmt, args...)
}

func (g *flakyGateway) Get(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	return g.inner.Get(ctx, stmt, args...)
}

func (g *flakyGateway) All(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	return g.inner.All(ctx, stmt, args...)
}

// pausingGateway parks inside BEGIN until released, holding the statement
// open so the test can act while a transaction is mid-flight.
type pausingGateway struct {
	inner   types.Gateway
	reached chan struct{}
	release chan struct{}
}

func newPausingGateway(inner types.Gateway) *pausingGateway {
	return &pausingGateway{
		inner:   inner,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *pausingGateway) Run(ctx context.Context, stmt string, args ...any) (types.RunResult, error) {
	if strings.HasPrefix(strings.TrimSpace(stmt), "BEGIN") {
		close(g.reached)
		<-g.release
	}
	return g.inner.Run(ctx, stmt, args...)
}

func (g *pausingGateway) Get(ctx context.Context, stmt string, args ...any) (map[string]any, error) {
	return g.inner.Get(ctx, stmt, args...)
}

func (g *pausingGateway) All(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	return g.inner.All(ctx, stmt, args...)
}

// eventLog records every event a service publishes.
type eventLog struct {
	mu      sync.Mutex
	changes []types.ChangeEvent
	saves   []types.SaveEvent
	done    []string
}

func (l *eventLog) attach(svc *Service) {
	svc.OnPageChange(func(ev types.ChangeEvent) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.changes = append(l.changes, ev)
	})
	svc.OnSaveState(func(ev types.SaveEvent) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.saves = append(l.saves, ev)
	})
	svc.OnSaveComplete(func(pageID string) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.done = append(l.done, pageID)
	})
}

func (l *eventLog) saveStates() []types.SaveState {
	l.mu.Lock()
	defer l.mu.Unlock()
	states := make([]types.SaveState, len(l.saves))
	for i, ev := range l.saves {
		states[i] = ev.State
	}
	return states
}

func (l *eventLog) lastSave() (types.SaveEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.saves) == 0 {
		return types.SaveEvent{}, false
	}
	return l.saves[len(l.saves)-1], true
}

func (l *eventLog) changeKinds() []types.ChangeKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]types.ChangeKind, len(l.changes))
	for i, ev := range l.changes {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (l *eventLog) countChanges(kind types.ChangeKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.changes {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) countSaves(state types.SaveState) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.saves {
		if ev.State == state {
			n++
		}
	}
	return n
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = nil
	l.saves = nil
	l.done = nil
}

// harness wires a service over a real SQLite gateway, a manual clock, and
// an optional flaky wrapper for failure injection.
type harness struct {
	gw    *sqlite.Gateway
	flaky *flakyGateway
	clk   *manualClock
	svc   *Service
	log   *eventLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gw, err := sqlite.Open(filepath.Join(t.TempDir(), "leaflet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	flaky := &flakyGateway{inner: gw}
	clk := newManualClock()
	svc := NewService(flaky, codec.New(), Options{Clock: clk})
	t.Cleanup(svc.Close)

	log := &eventLog{}
	log.attach(svc)
	return &harness{gw: gw, flaky: flaky, clk: clk, svc: svc, log: log}
}

// newPausingHarness wires a service over a gateway that parks inside
// BEGIN, for tests that must observe an open transaction.
func newPausingHarness(t *testing.T) (*pausingGateway, *manualClock, *Service, *eventLog) {
	t.Helper()
	gw, err := sqlite.Open(filepath.Join(t.TempDir(), "leaflet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	pausing := newPausingGateway(gw)
	clk := newManualClock()
	svc := NewService(pausing, codec.New(), Options{Clock: clk})
	t.Cleanup(svc.Close)

	log := &eventLog{}
	log.attach(svc)
	return pausing, clk, svc, log
}

// block builds a paragraph block node.
func block(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"paragraph","text":%q}`, text))
}

// docWith encodes blocks into a storable payload.
func docWith(t *testing.T, blocks ...json.RawMessage) string {
	t.Helper()
	enc, err := codec.New().EncodeFromDoc(blocks)
	require.NoError(t, err)
	return enc.Content
}

// decodeBlocks decodes a stored payload back into its block list.
func decodeBlocks(t *testing.T, content string) []json.RawMessage {
	t.Helper()
	dec, err := codec.New().Decode(content)
	require.NoError(t, err)
	return dec.Blocks
}

func strPtr(s string) *string { return &s }
func revPtr(r int64) *int64   { return &r }
