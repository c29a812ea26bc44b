package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the socket at path.
func NewClientAt(path string) *Client {
	return &Client{
		socketPath: path,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) simple(cmd CommandType) error {
	_, err := c.sendRequest(&Request{Command: cmd})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// ListLayouts retrieves the configured layout order.
func (c *Client) ListLayouts() (*LayoutsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListLayouts})
	if err != nil {
		return nil, err
	}

	var data LayoutsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse layouts data: %w", err)
	}
	return &data, nil
}

func (c *Client) workspace(cmd CommandType, index int) error {
	payload, err := json.Marshal(WorkspacePayload{Index: index})
	if err != nil {
		return fmt.Errorf("failed to marshal workspace payload: %w", err)
	}
	_, err = c.sendRequest(&Request{Command: cmd, Payload: payload})
	return err
}

// SwitchWorkspace activates workspace index on the focused screen.
func (c *Client) SwitchWorkspace(index int) error {
	return c.workspace(CommandSwitchWorkspace, index)
}

// MoveToWorkspace moves the focused window to workspace index.
func (c *Client) MoveToWorkspace(index int) error {
	return c.workspace(CommandMoveToWorkspace, index)
}

func (c *Client) NextLayout() error     { return c.simple(CommandNextLayout) }
func (c *Client) ToggleFloating() error { return c.simple(CommandToggleFloating) }
func (c *Client) Retile() error         { return c.simple(CommandRetile) }
func (c *Client) Debug() error          { return c.simple(CommandDebug) }

func (c *Client) ToggleFocusFollowsMouse() error {
	return c.simple(CommandToggleFocusFollowsMouse)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

// Watch streams daemon notifications to fn until ctx is done, the daemon
// closes the stream, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	conn, err := d.DialContext(dialCtx, "unix", c.socketPath)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	reqData, err := json.Marshal(&Request{Command: CommandWatch})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return fmt.Errorf("daemon error: %s", resp.Error)
	}

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
