package segview

import (
	"math"
	"strings"

	"github.com/jwulff/roadnoise/internal/playback"
	"github.com/jwulff/roadnoise/internal/timeline"
	"github.com/jwulff/roadnoise/internal/timer"
	"github.com/jwulff/roadnoise/internal/ui"
)

// Row layout: "> 08:00 " before the bar and " ▶" after it.
const (
	prefixWidth = 8
	suffixWidth = 2
)

var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// View presents one segment as a row of the chart.
type View struct {
	Index   int
	Segment *timeline.Segment
	// Progress is the bar's progress overlay, written by the playback
	// controller while this segment is active.
	Progress *playback.Indicator

	hover Hover
}

// NewViews builds one view per recording of doc, in document order.
func NewViews(doc *timeline.Document) []*View {
	if doc == nil {
		return nil
	}
	views := make([]*View, len(doc.Recordings))
	for i := range doc.Recordings {
		views[i] = &View{
			Index:    i,
			Segment:  &doc.Recordings[i],
			Progress: &playback.Indicator{},
		}
	}
	return views
}

// Teardown cancels the hover timers of every view.
func Teardown(views []*View) {
	for _, v := range views {
		v.hover.Teardown()
	}
}

// Enter starts the hover debounce for this view.
func (v *View) Enter() (timer.Token, bool) { return v.hover.Enter() }

// Leave ends the hover on this view.
func (v *View) Leave() { v.hover.Leave() }

// FireHover applies a delayed expansion.
func (v *View) FireHover(tok timer.Token) bool { return v.hover.Fire(tok) }

// Expanded reports whether the view shows its sub-samples.
func (v *View) Expanded() bool { return v.hover.Expanded() }

// HoverPending reports whether an expansion is scheduled.
func (v *View) HoverPending() bool { return v.hover.Pending() }

// IsSelected reports whether this view's segment is the active one.
func (v *View) IsSelected(s playback.Session) bool {
	return s.IsSelected(v.Segment)
}

// Height returns the number of lines Render produces.
func (v *View) Height() int {
	if v.Expanded() {
		return 2
	}
	return 1
}

// HourLabel returns the local "HH:MM" of the segment start.
func (v *View) HourLabel() string {
	if v.Segment == nil || v.Segment.Timestamp.IsZero() {
		return "--:--"
	}
	return v.Segment.Timestamp.Local().Format("15:04")
}

// RenderOptions carries the per-frame context of a row.
type RenderOptions struct {
	Width   int
	MaxPeak float64
	Session playback.Session
	Cursor  bool
}

// BarColumns returns how many columns a bar of full width may use.
func BarColumns(width int) int {
	return max(0, width-prefixWidth-suffixWidth)
}

// Render draws the row, plus the sub-sample line while expanded.
func (v *View) Render(opts RenderOptions) string {
	g := Measure(v.Segment, opts.MaxPeak)
	cells := int(math.Round(g.WidthFraction * float64(BarColumns(opts.Width))))
	selected := v.IsSelected(opts.Session)

	var b strings.Builder
	if opts.Cursor {
		b.WriteString(ui.CursorStyle.Render(">"))
	} else {
		b.WriteString(" ")
	}
	b.WriteString(" ")
	if selected {
		b.WriteString(ui.SelectedMarkStyle.Render(v.HourLabel()))
	} else {
		b.WriteString(ui.HourStyle.Render(v.HourLabel()))
	}
	b.WriteString(" ")

	played := int(math.Round(v.Progress.Shown() * float64(cells)))
	bandStyle := ui.BandStyle(g.Band)
	if played > 0 {
		b.WriteString(ui.PlayingStyle.Render(strings.Repeat("█", played)))
	}
	if cells > played {
		b.WriteString(bandStyle.Render(strings.Repeat("█", cells-played)))
	}
	if selected {
		b.WriteString(" " + ui.SelectedMarkStyle.Render(stateGlyph(opts.Session.State)))
	}

	if !v.Expanded() {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", prefixWidth))
	if len(g.SubBars) == 0 {
		b.WriteString(ui.DimStyle.Render("no sub-samples"))
		return b.String()
	}
	b.WriteString(bandStyle.Render(Sparkline(g.SubBars, max(cells, 1))))
	return b.String()
}

// Sparkline renders heights in [0,1] into exactly cols glyphs. When there
// are more heights than columns each column shows the loudest value of its
// bucket.
func Sparkline(heights []float64, cols int) string {
	if cols <= 0 || len(heights) == 0 {
		return ""
	}
	n := len(heights)
	out := make([]rune, cols)
	for c := 0; c < cols; c++ {
		lo := c * n / cols
		hi := max((c+1)*n/cols, lo+1)
		h := 0.0
		for _, v := range heights[lo:min(hi, n)] {
			h = max(h, v)
		}
		level := int(math.Round(h * float64(len(sparkLevels)-1)))
		out[c] = sparkLevels[min(max(level, 0), len(sparkLevels)-1)]
	}
	return string(out)
}

func stateGlyph(s playback.State) string {
	switch s {
	case playback.Playing:
		return "▶"
	case playback.Paused:
		return "‖"
	}
	return "■"
}
