package playback

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jwulff/roadnoise/internal/timeline"
	"github.com/jwulff/roadnoise/internal/timer"
)

// SampleInterval is the cadence of the progress sampler.
const SampleInterval = 200 * time.Millisecond

// State is the controller's playback state.
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Session is a snapshot of the playback state for rendering.
type Session struct {
	// Selected is the active segment, kept after playback ends. The
	// controller never owns it.
	Selected *timeline.Segment
	State    State
	Playing  bool
	// Starting is true between Play and the player's started event.
	Starting bool
}

// IsSelected reports whether seg is the active segment.
func (s Session) IsSelected(seg *timeline.Segment) bool {
	return s.Selected != nil && seg != nil && s.Selected.Filename == seg.Filename
}

// Controller is the playback state machine. It is not safe for concurrent
// use; every method is called from the UI event loop.
type Controller struct {
	player    Player
	assetBase string

	state    State
	starting bool
	selected *timeline.Segment
	gen      uint64
	playID   string

	// Progress handles of the bar being played and the one before it.
	active   *Indicator
	previous *Indicator

	sampler timer.Timer
}

// NewController returns an idle controller. player may be nil, in which
// case every activation fails with ErrNoPlayer.
func NewController(player Player, assetBase string) *Controller {
	return &Controller{player: player, assetBase: assetBase}
}

// Session returns the current playback state.
func (c *Controller) Session() Session {
	return Session{
		Selected: c.selected,
		State:    c.state,
		Playing:  c.state == Playing,
		Starting: c.state == Playing && c.starting,
	}
}

// Active returns the progress handle of the active bar.
func (c *Controller) Active() *Indicator { return c.active }

// Previous returns the progress handle reset by the last switch.
func (c *Controller) Previous() *Indicator { return c.previous }

// Activate handles a click on seg, whose bar draws progress through h.
// Activating the playing segment pauses it, activating the paused segment
// resumes it from where it stopped rather than restarting it, and any other
// activation switches playback to seg.
//
// When a sampler should run, Activate returns its live token; otherwise it
// returns the zero token. A returned error is meant for the user: the
// controller has already fallen back to Idle.
func (c *Controller) Activate(seg *timeline.Segment, h *Indicator) (timer.Token, error) {
	if seg == nil {
		return 0, nil
	}
	same := c.selected != nil && c.selected.Filename == seg.Filename

	if c.active != nil && c.active != h {
		c.previous = c.active
		SetProgressIndicator(c.previous, 0)
	}
	c.active = h

	switch {
	case same && c.state == Playing:
		return 0, c.Pause()
	case same && c.state == Paused:
		return c.resume()
	default:
		return c.start(seg)
	}
}

// Pause pauses the playing segment. It is a no-op in any other state.
func (c *Controller) Pause() error {
	if c.state != Playing {
		return nil
	}
	if err := c.player.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	c.state = Paused
	c.sampler.Cancel()
	log.Printf("playback %s: paused %s", c.playID, c.selected.Filename)
	return nil
}

func (c *Controller) resume() (timer.Token, error) {
	if err := c.player.Resume(); err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}
	c.state = Playing
	log.Printf("playback %s: resumed %s", c.playID, c.selected.Filename)
	return c.sampler.Arm(), nil
}

func (c *Controller) start(seg *timeline.Segment) (timer.Token, error) {
	if c.player == nil {
		c.fail()
		return 0, ErrNoPlayer
	}

	c.selected = seg
	src := ResolveAsset(c.assetBase, seg.OutputFile)
	gen, err := c.player.Play(src)
	if err != nil {
		log.Printf("playback: start %s failed: %v", seg.Filename, err)
		// The previous file may still be loaded, paused or not.
		if serr := c.player.Stop(); serr != nil {
			log.Printf("playback: stop after failed start: %v", serr)
		}
		c.fail()
		return 0, fmt.Errorf("play %s: %w", seg.OutputFile, err)
	}

	c.gen = gen
	c.state = Playing
	c.starting = true
	c.playID = uuid.NewString()
	log.Printf("playback %s: start %s (%s)", c.playID, seg.Filename, src)
	return c.sampler.Arm(), nil
}

// fail reverts to Idle after a start failure. A failed start never
// becomes a paused state.
func (c *Controller) fail() {
	c.state = Idle
	c.starting = false
	c.selected = nil
	c.sampler.Cancel()
	SetProgressIndicator(c.active, 0)
}

// HandleEvent applies a player lifecycle event. Events from a replaced
// source are ignored. A non-nil error reports a start failure to the user.
func (c *Controller) HandleEvent(ev Event) error {
	if ev.Gen != c.gen || c.state == Idle {
		return nil
	}

	switch ev.Kind {
	case EventStarted:
		c.starting = false

	case EventEnded:
		// Selection stays so the chart still shows what was played last.
		c.state = Idle
		c.starting = false
		c.sampler.Cancel()
		log.Printf("playback %s: ended %s", c.playID, c.selected.Filename)

	case EventFailed:
		name := c.selected.OutputFile
		log.Printf("playback %s: %s failed: %v", c.playID, c.selected.Filename, ev.Err)
		c.fail()
		if ev.Err == nil {
			return fmt.Errorf("play %s: playback failed", name)
		}
		return fmt.Errorf("play %s: %w", name, ev.Err)
	}
	return nil
}

// SamplerLive reports whether a sampler tick with tok should still run.
func (c *Controller) SamplerLive(tok timer.Token) bool {
	return c.sampler.Live(tok)
}

// ApplyProgress pushes a sampled position to the active bar. It reports
// whether the sampler is still live and should be rescheduled.
func (c *Controller) ApplyProgress(tok timer.Token, pos Position) bool {
	if !c.sampler.Live(tok) {
		return false
	}
	if f, ok := pos.Fraction(); ok {
		SetProgressIndicator(c.active, f)
	}
	return true
}

// Stop halts playback and forgets the selection and handles. Used when the
// timeline is replaced.
func (c *Controller) Stop() {
	c.sampler.Cancel()
	if c.player != nil && c.state != Idle {
		if err := c.player.Stop(); err != nil {
			log.Printf("playback: stop: %v", err)
		}
	}
	c.state = Idle
	c.starting = false
	c.selected = nil
	c.active = nil
	c.previous = nil
}

// Close releases the controller's timers and stops the player. The player
// itself stays open; its owner closes it.
func (c *Controller) Close() {
	c.Stop()
}
