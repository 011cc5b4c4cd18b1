// Package segview holds the per-segment presentation logic of the chart:
// bar geometry, the debounced hover expansion and row rendering.
package segview

import (
	"math"

	"github.com/jwulff/roadnoise/internal/intensity"
	"github.com/jwulff/roadnoise/internal/timeline"
)

// Geometry is the computed shape of one bar.
type Geometry struct {
	// WidthFraction is the bar length relative to the loudest peak, in [0,1].
	WidthFraction float64
	Band          intensity.Band
	// SubBars are the sub-sample heights relative to the segment peak.
	SubBars []float64
}

// Measure computes the geometry of seg against the document's max peak.
// Malformed values degrade to zero; Measure never divides by zero.
func Measure(seg *timeline.Segment, maxPeak float64) Geometry {
	if seg == nil {
		return Geometry{}
	}
	g := Geometry{
		WidthFraction: ratio(seg.PeakRMS, maxPeak),
		Band:          intensity.ColorFor(seg.MeanRMS * intensity.MeanMultiplier),
	}
	if len(seg.RMSValues) > 0 {
		g.SubBars = make([]float64, len(seg.RMSValues))
		for i, v := range seg.RMSValues {
			g.SubBars[i] = ratio(v, seg.PeakRMS)
		}
	}
	return g
}

// ratio returns v/denom clamped to [0,1], or 0 when it is undefined.
func ratio(v, denom float64) float64 {
	if denom <= 0 || math.IsNaN(denom) {
		return 0
	}
	r := v / denom
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
