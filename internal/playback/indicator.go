package playback

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// AnimationFPS is the frame rate of indicator easing.
const AnimationFPS = 30

// Indicator is the progress overlay of one bar. It is written directly by
// the controller's sampler rather than through model state, so progress
// updates never force a rebuild of the session.
type Indicator struct {
	fraction float64
	shown    float64
	velocity float64
}

var resetSpring = harmonica.NewSpring(harmonica.FPS(AnimationFPS), 10.0, 1.0)

const settleEpsilon = 0.002

// SetProgressIndicator writes a progress fraction to h. Forward movement is
// shown immediately; moving backwards (a reset) eases toward the new value
// through Step. A nil handle is ignored.
func SetProgressIndicator(h *Indicator, fraction float64) {
	if h == nil {
		return
	}
	f := clamp01(fraction)
	h.fraction = f
	if f >= h.shown {
		h.shown = f
		h.velocity = 0
	}
}

// Fraction returns the last written value.
func (h *Indicator) Fraction() float64 {
	if h == nil {
		return 0
	}
	return h.fraction
}

// Shown returns the value to draw, which lags Fraction while easing.
func (h *Indicator) Shown() float64 {
	if h == nil {
		return 0
	}
	return h.shown
}

// Animating reports whether Step still has work to do.
func (h *Indicator) Animating() bool {
	return h != nil && h.shown != h.fraction
}

// Step advances the easing by one frame and reports whether it is still
// in motion.
func (h *Indicator) Step() bool {
	if !h.Animating() {
		return false
	}
	h.shown, h.velocity = resetSpring.Update(h.shown, h.velocity, h.fraction)
	if math.Abs(h.shown-h.fraction) < settleEpsilon {
		h.shown = h.fraction
		h.velocity = 0
		return false
	}
	return true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
