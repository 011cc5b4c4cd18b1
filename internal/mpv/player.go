package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/jwulff/roadnoise/internal/playback"
)

const socketWait = 5 * time.Second

// Player is a playback.Player backed by one mpv instance. Two connections
// are kept open: one for commands and one for the event stream.
type Player struct {
	cmd    *Client
	evConn *Client
	events chan playback.Event

	// mu guards the generation bookkeeping shared with the event loop.
	mu       sync.Mutex
	gen      uint64
	entries  map[int64]uint64
	entryIDs bool
	current  int64

	proc    *exec.Cmd
	sockDir string
	done    chan struct{}
}

// Launch starts an idle mpv process with an IPC socket in a private
// temporary directory and connects to it.
func Launch(ctx context.Context, binary string) (*Player, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("find mpv: %w", err)
	}
	dir, err := os.MkdirTemp("", "roadnoise-mpv-")
	if err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	sock := filepath.Join(dir, "mpv.sock")

	proc := exec.CommandContext(ctx, path,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+sock,
	)
	if err := proc.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	if err := waitForSocket(ctx, sock); err != nil {
		proc.Process.Kill()
		proc.Wait()
		os.RemoveAll(dir)
		return nil, err
	}

	p, err := Dial(sock)
	if err != nil {
		proc.Process.Kill()
		proc.Wait()
		os.RemoveAll(dir)
		return nil, err
	}
	p.proc = proc
	p.sockDir = dir
	log.Printf("mpv: started %s (pid %d)", path, proc.Process.Pid)
	return p, nil
}

func waitForSocket(ctx context.Context, sock string) error {
	deadline := time.Now().Add(socketWait)
	for {
		if _, err := os.Stat(sock); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mpv socket %s did not appear within %s", sock, socketWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Dial connects to an mpv instance already listening on socketPath.
func Dial(socketPath string) (*Player, error) {
	cmd, err := Connect(socketPath)
	if err != nil {
		return nil, err
	}
	// Events are read from evConn only.
	if resp, err := cmd.SendCommand("disable_event", "all"); err != nil {
		cmd.Close()
		return nil, err
	} else if err := resp.Err(); err != nil {
		cmd.Close()
		return nil, fmt.Errorf("disable events: %w", err)
	}
	evConn, err := Connect(socketPath)
	if err != nil {
		cmd.Close()
		return nil, err
	}

	p := &Player{
		cmd:     cmd,
		evConn:  evConn,
		events:  make(chan playback.Event, 16),
		entries: make(map[int64]uint64),
		done:    make(chan struct{}),
	}
	go p.readEvents()
	return p, nil
}

// Play replaces the loaded file with src and starts it unpaused.
func (p *Player) Play(src string) (uint64, error) {
	// Held across loadfile so the event loop cannot look up the new
	// playlist entry before it is registered.
	p.mu.Lock()
	defer p.mu.Unlock()

	resp, err := p.cmd.SendCommand("loadfile", src, "replace")
	if err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, fmt.Errorf("loadfile: %w", err)
	}

	p.gen++
	var data loadfileData
	if len(resp.Data) > 0 && json.Unmarshal(resp.Data, &data) == nil && data.PlaylistEntryID != 0 {
		p.entries[data.PlaylistEntryID] = p.gen
		p.entryIDs = true
	}

	// Unpause only once the new file replaced the old one.
	if err := p.setPause(false); err != nil {
		return 0, fmt.Errorf("unpause: %w", err)
	}
	return p.gen, nil
}

// Pause pauses the current file.
func (p *Player) Pause() error {
	return p.setPause(true)
}

// Resume continues the current file.
func (p *Player) Resume() error {
	return p.setPause(false)
}

func (p *Player) setPause(paused bool) error {
	resp, err := p.cmd.SendCommand("set_property", "pause", paused)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Stop unloads the current file.
func (p *Player) Stop() error {
	resp, err := p.cmd.SendCommand("stop")
	if err != nil {
		return err
	}
	return resp.Err()
}

// Position reads the playback position. Properties that are unavailable
// while nothing is loaded read as zero.
func (p *Player) Position() (playback.Position, error) {
	elapsed, err := p.floatProperty("time-pos")
	if err != nil {
		return playback.Position{}, err
	}
	duration, err := p.floatProperty("duration")
	if err != nil {
		return playback.Position{}, err
	}
	return playback.Position{
		Elapsed:  seconds(elapsed),
		Duration: seconds(duration),
	}, nil
}

func (p *Player) floatProperty(name string) (float64, error) {
	resp, err := p.cmd.SendCommand("get_property", name)
	if err != nil {
		return 0, err
	}
	if resp.Error == "property unavailable" {
		return 0, nil
	}
	if err := resp.Err(); err != nil {
		return 0, fmt.Errorf("get %s: %w", name, err)
	}
	return resp.Float()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Events returns the lifecycle stream. It is closed when the event
// connection ends.
func (p *Player) Events() <-chan playback.Event {
	return p.events
}

func (p *Player) readEvents() {
	defer close(p.events)
	for {
		ev, err := p.evConn.ReadEvent()
		if err != nil {
			select {
			case <-p.done:
			default:
				log.Printf("mpv: event stream ended: %v", err)
			}
			return
		}
		if out, ok := p.translate(ev); ok {
			select {
			case p.events <- out:
			case <-p.done:
				return
			}
		}
	}
}

// translate maps an mpv event onto a playback event.
func (p *Player) translate(ev Event) (playback.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Event {
	case EventStartFile:
		p.current = ev.PlaylistEntryID
		return playback.Event{}, false

	case EventFileLoaded:
		return playback.Event{Kind: playback.EventStarted, Gen: p.genFor(p.current)}, true

	case EventEndFile:
		gen := p.genFor(ev.PlaylistEntryID)
		delete(p.entries, ev.PlaylistEntryID)
		switch ev.Reason {
		case ReasonEOF:
			return playback.Event{Kind: playback.EventEnded, Gen: gen}, true
		case ReasonError:
			msg := ev.FileError
			if msg == "" {
				msg = "unknown error"
			}
			return playback.Event{Kind: playback.EventFailed, Gen: gen, Err: errors.New(msg)}, true
		}
	}
	return playback.Event{}, false
}

// genFor returns the generation of a playlist entry, or zero for an entry
// from a replaced file. mpv builds that do not report entry ids map
// everything to the latest generation.
func (p *Player) genFor(entry int64) uint64 {
	if gen, ok := p.entries[entry]; ok {
		return gen
	}
	if p.entryIDs {
		return 0
	}
	return p.gen
}

// Close quits a launched mpv process and closes both connections.
func (p *Player) Close() error {
	select {
	case <-p.done:
		return nil
	default:
		close(p.done)
	}

	if p.proc != nil {
		// mpv may drop the socket before answering quit.
		p.cmd.SendCommand("quit")
	}
	errs := []error{p.cmd.Close(), p.evConn.Close()}

	if p.proc != nil {
		waitErr := make(chan error, 1)
		go func() { waitErr <- p.proc.Wait() }()
		select {
		case <-waitErr:
		case <-time.After(2 * time.Second):
			p.proc.Process.Kill()
			<-waitErr
		}
		os.RemoveAll(p.sockDir)
	}
	return errors.Join(errs...)
}
