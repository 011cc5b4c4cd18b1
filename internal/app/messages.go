package app

import (
	"github.com/jwulff/roadnoise/internal/playback"
	"github.com/jwulff/roadnoise/internal/timeline"
	"github.com/jwulff/roadnoise/internal/timer"
)

// TimelineLoadedMsg carries the document to display. Reload is set when it
// replaces a document that was already on screen.
type TimelineLoadedMsg struct {
	Doc    *timeline.Document
	Reload bool
}

// TimelineReloadFailedMsg is sent when a changed source could not be read.
// The current document stays on screen.
type TimelineReloadFailedMsg struct {
	Err error
}

// TimelineChangedMsg is sent when the watched timeline file changes.
type TimelineChangedMsg struct{}

// PlayerEventMsg wraps a lifecycle event from the audio player.
type PlayerEventMsg struct {
	Event playback.Event
}

// playerClosedMsg is sent once the player's event stream ends.
type playerClosedMsg struct{}

// SampleTickMsg asks for a progress sample of the active segment.
type SampleTickMsg struct {
	Token timer.Token
}

// ProgressMsg carries a sampled playback position.
type ProgressMsg struct {
	Token    timer.Token
	Position playback.Position
	Err      error
}

// HoverTickMsg fires when a bar's hover delay has elapsed.
type HoverTickMsg struct {
	Index int
	Token timer.Token
}

// AnimationTickMsg advances easing progress indicators by one frame.
type AnimationTickMsg struct{}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
