package browser

import (
	"sync"
	"time"
)

// idleTracker counts in-flight requests and remembers when the network last
// changed state.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	last     time.Time
	now      func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight: make(map[string]struct{}),
		last:     time.Now(),
		now:      time.Now,
	}
}

func (t *idleTracker) start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.last = t.now()
}

func (t *idleTracker) finish(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.last = t.now()
}

// quietFor returns how long there have been zero requests in flight, or 0
// while any request is outstanding.
func (t *idleTracker) quietFor(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0
	}
	return now.Sub(t.last)
}

func (t *idleTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
