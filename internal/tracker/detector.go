package tracker

import (
	"sync"

	"orderdesk/internal/model"
)

// ReadyDetector turns a stream of observed statuses into ready events. The
// same status can arrive on many polls; only a change into ready fires.
type ReadyDetector struct {
	mu       sync.Mutex
	previous model.OrderStatus
	seen     bool
}

// Observe records status and reports whether it is a transition into ready.
// The first observation never fires.
func (d *ReadyDetector) Observe(status model.OrderStatus) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	fire := d.seen && status == model.StatusReady && d.previous != model.StatusReady
	d.previous = status
	d.seen = true
	return fire
}

// Reset forgets the previous observation.
func (d *ReadyDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.previous = ""
	d.seen = false
}
