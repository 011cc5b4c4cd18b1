package playback

import (
	"math"
	"testing"
)

func TestSetProgressIndicatorForward(t *testing.T) {
	var h Indicator
	SetProgressIndicator(&h, 0.4)
	if h.Fraction() != 0.4 || h.Shown() != 0.4 {
		t.Errorf("fraction/shown = %v/%v, want 0.4/0.4", h.Fraction(), h.Shown())
	}
	if h.Animating() {
		t.Error("forward writes should not animate")
	}
}

func TestSetProgressIndicatorClamps(t *testing.T) {
	var h Indicator
	SetProgressIndicator(&h, 3)
	if h.Fraction() != 1 {
		t.Errorf("fraction = %v, want 1", h.Fraction())
	}
	SetProgressIndicator(&h, math.NaN())
	if h.Fraction() != 0 {
		t.Errorf("fraction = %v, want 0 for NaN", h.Fraction())
	}
	SetProgressIndicator(nil, 0.5) // must not panic
}

func TestResetEasesToZero(t *testing.T) {
	var h Indicator
	SetProgressIndicator(&h, 0.8)
	SetProgressIndicator(&h, 0)

	if h.Fraction() != 0 {
		t.Fatalf("fraction = %v, want 0 immediately", h.Fraction())
	}
	if !h.Animating() {
		t.Fatal("reset should ease")
	}

	prev := h.Shown()
	frames := 0
	for h.Step() {
		if h.Shown() > prev {
			t.Fatalf("easing moved backwards: %v -> %v", prev, h.Shown())
		}
		prev = h.Shown()
		frames++
		if frames > 5*AnimationFPS {
			t.Fatal("easing did not settle within 5s of frames")
		}
	}
	if h.Shown() != 0 {
		t.Errorf("shown = %v after settling, want 0", h.Shown())
	}
}
