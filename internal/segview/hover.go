package segview

import (
	"time"

	"github.com/jwulff/roadnoise/internal/timer"
)

// HoverDelay is how long the pointer must rest on a bar before it expands.
const HoverDelay = 500 * time.Millisecond

// Hover is the debounced expansion state of one bar.
type Hover struct {
	timer    timer.Timer
	inside   bool
	expanded bool
}

// Enter records the pointer entering the bar. It returns the token the
// owner must deliver to Fire after HoverDelay; ok is false when the pointer
// was already inside and nothing new was scheduled.
func (h *Hover) Enter() (tok timer.Token, ok bool) {
	if h.inside {
		return 0, false
	}
	h.inside = true
	return h.timer.Arm(), true
}

// Leave records the pointer leaving. A pending expansion is cancelled and
// an expanded bar collapses immediately.
func (h *Hover) Leave() {
	h.inside = false
	h.expanded = false
	h.timer.Cancel()
}

// Fire applies a delayed expansion. It reports whether tok was still live.
func (h *Hover) Fire(tok timer.Token) bool {
	if !h.timer.Consume(tok) {
		return false
	}
	h.expanded = true
	return true
}

// Expanded reports whether sub-samples are shown.
func (h *Hover) Expanded() bool { return h.expanded }

// Pending reports whether an expansion is scheduled.
func (h *Hover) Pending() bool { return h.timer.Active() }

// Teardown cancels any pending expansion; the bar is going away.
func (h *Hover) Teardown() {
	h.Leave()
}
