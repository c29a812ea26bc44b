package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/broadcast"
	"github.com/1broseidon/tilewm/internal/reactor"
)

const queryTimeout = 5 * time.Second

// Controller is the part of the reactor the control socket drives.
type Controller interface {
	Submit(ev reactor.Event) error
	Status(ctx context.Context) (reactor.Status, error)
}

// Watcher streams published reactor notifications. *broadcast.Broadcaster
// implements it.
type Watcher interface {
	Watch(ctx context.Context, topics ...string) (<-chan broadcast.Notice, error)
}

var watchTopics = []string{
	reactor.TopicWorkspaceChanged,
	reactor.TopicWindowsChanged,
	reactor.TopicWindowTitleChanged,
}

// Server handles IPC requests from clients
type Server struct {
	socketPath    string
	listener      net.Listener
	ctrl          Controller
	events        Watcher
	layouts       []string
	defaultLayout string
	logger        *slog.Logger
	startTime     time.Time
	shuttingDown  bool
	shutdownMu    sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewServer creates a server for socketPath. Layouts is the configured
// layout order, default first.
func NewServer(socketPath string, ctrl Controller, layouts []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		layouts:    layouts,
		logger:     logger.With("component", "ipc"),
		startTime:  time.Now(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if len(layouts) > 0 {
		s.defaultLayout = layouts[0]
	}
	return s
}

// SetWatcher enables the WATCH command.
func (s *Server) SetWatcher(w Watcher) {
	s.events = w
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a previous run.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if req.Command == CommandWatch {
		s.streamEvents(conn, reader)
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListLayouts:
		resp, _ := NewOKResponse(LayoutsData{Layouts: s.layouts, DefaultLayout: s.defaultLayout})
		return resp
	case CommandSwitchWorkspace:
		return s.handleWorkspaceCommand(reactor.CmdSwitchWorkspace, req.Payload)
	case CommandMoveToWorkspace:
		return s.handleWorkspaceCommand(reactor.CmdMoveWindowToWorkspace, req.Payload)
	case CommandNextLayout:
		return s.submit(reactor.Command{Kind: reactor.CmdNextLayout})
	case CommandToggleFloating:
		return s.submit(reactor.Command{Kind: reactor.CmdToggleFloating})
	case CommandToggleFocusFollowsMouse:
		return s.submit(reactor.Command{Kind: reactor.CmdToggleFocusFollowsMouse})
	case CommandRetile:
		return s.submit(reactor.Command{Kind: reactor.CmdRetile})
	case CommandDebug:
		return s.submit(reactor.Command{Kind: reactor.CmdDebug})
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	st, err := s.ctrl.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to query status: %v", err))
	}

	resp, err := NewOKResponse(StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Reactor:       st,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleWorkspaceCommand(kind reactor.CommandKind, payload json.RawMessage) *Response {
	var p WorkspacePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid workspace payload: %v", err))
	}
	if p.Index < 0 {
		return NewErrorResponse(fmt.Sprintf("Invalid workspace index: %d", p.Index))
	}
	return s.submit(reactor.Command{Kind: kind, Index: p.Index})
}

func (s *Server) submit(cmd reactor.Command) *Response {
	if err := s.ctrl.Submit(cmd); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to submit %s: %v", cmd.Kind, err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) streamEvents(conn net.Conn, reader *bufio.Reader) {
	if s.events == nil {
		s.sendError(conn, "Event stream not available")
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	ch, err := s.events.Watch(ctx, watchTopics...)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Failed to watch events: %v", err))
		return
	}
	// Clients never send after WATCH; a read returning means they left.
	go func() {
		_, _ = reader.ReadByte()
		cancel()
	}()

	enc := json.NewEncoder(conn)
	if err := enc.Encode(Response{Status: "OK"}); err != nil {
		return
	}
	s.logger.Debug("event stream opened")
	for n := range ch {
		if err := enc.Encode(n); err != nil {
			s.logger.Debug("event stream closed", "error", err)
			return
		}
	}
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
