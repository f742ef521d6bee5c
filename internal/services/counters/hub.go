package countersvc

import (
	"sync"

	logpkg "github.com/BaraaAbuhalima/counter-app/pkg/log"
)

type watcher struct {
	ch      chan Event
	dropped uint64
}

// hub fans change events out to watchers. Publishing never blocks: a watcher
// whose buffer is full misses the event.
type hub struct {
	mu       sync.Mutex
	watchers map[*watcher]struct{}
	buf      int
	logger   logpkg.Logger
}

func newHub(buf int, logger logpkg.Logger) *hub {
	if buf <= 0 {
		buf = 64
	}
	return &hub{watchers: map[*watcher]struct{}{}, buf: buf, logger: logger}
}

func (h *hub) subscribe() *watcher {
	w := &watcher{ch: make(chan Event, h.buf)}
	h.mu.Lock()
	h.watchers[w] = struct{}{}
	h.mu.Unlock()
	return w
}

func (h *hub) unsubscribe(w *watcher) {
	h.mu.Lock()
	delete(h.watchers, w)
	h.mu.Unlock()
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers {
		select {
		case w.ch <- e:
		default:
			w.dropped++
			h.logger.Warn("watcher too slow; dropping event",
				logpkg.Int64("revision", int64(e.Revision)), logpkg.Int64("dropped", int64(w.dropped)))
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}
