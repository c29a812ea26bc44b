package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tilewm/internal/reactor"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus               CommandType = "GET_STATUS"
	CommandListLayouts             CommandType = "LIST_LAYOUTS"
	CommandSwitchWorkspace         CommandType = "SWITCH_WORKSPACE"
	CommandMoveToWorkspace         CommandType = "MOVE_TO_WORKSPACE"
	CommandNextLayout              CommandType = "NEXT_LAYOUT"
	CommandToggleFloating          CommandType = "TOGGLE_FLOATING"
	CommandToggleFocusFollowsMouse CommandType = "TOGGLE_FOCUS_FOLLOWS_MOUSE"
	CommandRetile                  CommandType = "RETILE"
	CommandDebug                   CommandType = "DEBUG"
	// CommandWatch keeps the connection open and streams one Event per
	// line after the OK response.
	CommandWatch CommandType = "WATCH"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	DaemonRunning bool           `json:"daemon_running"`
	Reactor       reactor.Status `json:"reactor"`
}

type LayoutsData struct {
	Layouts       []string `json:"layouts"`
	DefaultLayout string   `json:"default_layout"`
}

// Event is one streamed domain notification.
type Event struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// WorkspacePayload selects a workspace by zero-based index.
type WorkspacePayload struct {
	Index int `json:"index"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
