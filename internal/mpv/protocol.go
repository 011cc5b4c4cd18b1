// Package mpv drives an mpv process over its JSON IPC socket and exposes it
// as the single audio resource of the playback controller.
//
// The IPC protocol is NDJSON: every command line carries a request_id that
// the matching response echoes, and asynchronous events are interleaved
// with responses on every connection.
package mpv

import (
	"encoding/json"
	"fmt"
)

// Command is sent from a client to mpv.
type Command struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// Response is returned by mpv after processing a command.
type Response struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OK reports whether mpv accepted the command.
func (r Response) OK() bool { return r.Error == "success" }

// Err returns nil for a successful response.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("mpv: %s", r.Error)
}

// Float decodes a numeric data payload.
func (r Response) Float() (float64, error) {
	var f float64
	if err := json.Unmarshal(r.Data, &f); err != nil {
		return 0, fmt.Errorf("decode data %s: %w", r.Data, err)
	}
	return f, nil
}

// Event is streamed from mpv to every connected client.
type Event struct {
	Event           string `json:"event"`
	Reason          string `json:"reason,omitempty"`
	PlaylistEntryID int64  `json:"playlist_entry_id,omitempty"`
	FileError       string `json:"file_error,omitempty"`
}

// Event names and end-file reasons used by the player.
const (
	EventStartFile  = "start-file"
	EventFileLoaded = "file-loaded"
	EventEndFile    = "end-file"

	ReasonEOF   = "eof"
	ReasonError = "error"
)

// message is one line as read off the socket: either a response or an event.
type message struct {
	Response
	Event
}

func (m message) isEvent() bool { return m.Event.Event != "" }

type loadfileData struct {
	PlaylistEntryID int64 `json:"playlist_entry_id"`
}
