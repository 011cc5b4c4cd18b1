// Package intensity maps loudness values onto the five color bands used by
// the timeline chart.
package intensity

import (
	"fmt"
	"math"
)

// Band is one of the five fixed loudness classes, ordered from quietest.
type Band int

const (
	Quiet Band = iota
	Low
	Medium
	High
	VeryLoud
)

// Upper bounds (exclusive) of the first four bands. Anything at or above
// the last threshold is VeryLoud.
const (
	QuietBelow  = 0.15
	LowBelow    = 0.30
	MediumBelow = 0.50
	HighBelow   = 0.70
)

// MeanMultiplier scales a segment's mean RMS into the range ColorFor expects.
const MeanMultiplier = 6

// ColorFor returns the band for an intensity value. It is defined for every
// float64: negatives and NaN fall into Quiet.
func ColorFor(x float64) Band {
	switch {
	case math.IsNaN(x) || x < QuietBelow:
		return Quiet
	case x < LowBelow:
		return Low
	case x < MediumBelow:
		return Medium
	case x < HighBelow:
		return High
	default:
		return VeryLoud
	}
}

// Bands lists every band in ascending order.
func Bands() []Band {
	return []Band{Quiet, Low, Medium, High, VeryLoud}
}

type rgb struct{ r, g, b uint8 }

var (
	labels = [...]string{"Quiet", "Low", "Medium", "High", "Very Loud"}
	colors = [...]rgb{
		{59, 130, 246}, // blue
		{34, 197, 94},  // green
		{234, 179, 8},  // yellow
		{249, 115, 22}, // orange
		{239, 68, 68},  // red
	}
)

func (b Band) valid() bool { return b >= Quiet && b <= VeryLoud }

// String returns the legend label.
func (b Band) String() string {
	if !b.valid() {
		return "Unknown"
	}
	return labels[b]
}

// RGB returns the CSS-style color token, e.g. "rgb(59, 130, 246)".
func (b Band) RGB() string {
	c := b.color()
	return fmt.Sprintf("rgb(%d, %d, %d)", c.r, c.g, c.b)
}

// Hex returns the color as "#rrggbb", the form lipgloss accepts.
func (b Band) Hex() string {
	c := b.color()
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func (b Band) color() rgb {
	if !b.valid() {
		return colors[Quiet]
	}
	return colors[b]
}
