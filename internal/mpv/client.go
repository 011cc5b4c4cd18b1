package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// ErrClosed is returned when mpv closes the connection.
var ErrClosed = errors.New("mpv connection closed")

// Client communicates with mpv over its IPC socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	nextID  int64
}

// Connect dials the mpv IPC socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends one command and waits for its response. Events that
// arrive in between are discarded; read them on a dedicated connection.
func (c *Client) SendCommand(args ...any) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	cmd := Command{Command: args, RequestID: c.nextID}
	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	for {
		msg, err := c.readMessage()
		if err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		if msg.isEvent() || msg.RequestID != cmd.RequestID {
			continue
		}
		return msg.Response, nil
	}
}

// ReadEvent reads the next event line, skipping responses. Blocks until
// data arrives.
func (c *Client) ReadEvent() (Event, error) {
	for {
		msg, err := c.readMessage()
		if err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		if msg.isEvent() {
			return msg.Event, nil
		}
	}
}

func (c *Client) readMessage() (message, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return message{}, err
		}
		return message{}, ErrClosed
	}

	var msg message
	if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
		return message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return msg, nil
}
