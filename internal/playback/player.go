// Package playback drives the single audio resource behind the timeline
// chart: which segment is active, whether it is playing, and how far along
// it is.
package playback

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoPlayer is returned when activation happens without an audio backend.
var ErrNoPlayer = errors.New("no audio player available")

// EventKind classifies player lifecycle events.
type EventKind int

const (
	// EventStarted means the source is loaded and audible.
	EventStarted EventKind = iota
	// EventEnded means the source played to completion.
	EventEnded
	// EventFailed means the source could not be started.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventEnded:
		return "ended"
	case EventFailed:
		return "failed"
	}
	return "unknown"
}

// Event is an asynchronous lifecycle notification. Gen is the value Play
// returned for the source the event belongs to.
type Event struct {
	Kind EventKind
	Gen  uint64
	Err  error
}

// Position is the playback position of the current source.
type Position struct {
	Elapsed  time.Duration
	Duration time.Duration
}

// Fraction returns Elapsed/Duration clamped to [0,1], or false when the
// duration is not known yet.
func (p Position) Fraction() (float64, bool) {
	if p.Duration <= 0 {
		return 0, false
	}
	return clamp01(float64(p.Elapsed) / float64(p.Duration)), true
}

// Player is the one audio resource. Play replaces whatever source was
// loaded before, so at most one source is ever audible.
type Player interface {
	// Play loads src and starts it. The returned generation tags the
	// events that belong to this source.
	Play(src string) (uint64, error)
	Pause() error
	Resume() error
	Stop() error
	Position() (Position, error)
	Events() <-chan Event
}

// ResolveAsset resolves an output file against the asset base, which is
// either a URL or a directory. Absolute references are returned unchanged.
func ResolveAsset(base, file string) string {
	if isURL(file) || filepath.IsAbs(file) || base == "" {
		return file
	}
	if isURL(base) {
		if u, err := url.JoinPath(base, file); err == nil {
			return u
		}
		return strings.TrimSuffix(base, "/") + "/" + file
	}
	return filepath.Join(base, file)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
