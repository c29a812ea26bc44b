package reactor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Event is anything the reactor reacts to. Every variant is a plain value
// that round-trips through JSON so sessions can be recorded and replayed.
type Event interface {
	Type() string
}

// Quiet marks an edge the window manager caused itself. Quiet edges update
// bookkeeping but never trigger workspace switches or layout.
type Quiet bool

// Screen is a display and the space it currently shows. Space 0 means the
// space is not known yet.
type Screen struct {
	Frame platform.Rect    `json:"frame"`
	Space platform.SpaceID `json:"space"`
}

type ApplicationLaunched struct {
	PID         int32                       `json:"pid"`
	Info        app.Info                    `json:"info"`
	IsFrontmost bool                        `json:"is_frontmost"`
	MainWindow  app.WindowId                `json:"main_window"`
	ServerInfo  []platform.WindowServerInfo `json:"server_info,omitempty"`
}

type ApplicationTerminated struct {
	PID int32 `json:"pid"`
}

// ApplicationThreadTerminated reports that the worker of an application
// exited and its mailbox is closed.
type ApplicationThreadTerminated struct {
	PID int32 `json:"pid"`
}

type ApplicationActivated struct {
	PID   int32 `json:"pid"`
	Quiet Quiet `json:"quiet,omitempty"`
}

type ApplicationDeactivated struct {
	PID int32 `json:"pid"`
}

type ApplicationGloballyActivated struct {
	PID int32 `json:"pid"`
}

type ApplicationGloballyDeactivated struct {
	PID int32 `json:"pid"`
}

type ApplicationMainWindowChanged struct {
	PID    int32        `json:"pid"`
	Window app.WindowId `json:"window"`
	Quiet  Quiet        `json:"quiet,omitempty"`
}

// WindowsDiscovered carries metadata for new (or refreshed) windows of PID
// and the complete set of its windows that still exist.
type WindowsDiscovered struct {
	PID     int32                  `json:"pid"`
	Windows []app.DiscoveredWindow `json:"windows,omitempty"`
	Known   []app.WindowId         `json:"known"`
}

type WindowCreated struct {
	Window     app.WindowId               `json:"window"`
	Info       app.WindowInfo             `json:"info"`
	ServerInfo *platform.WindowServerInfo `json:"server_info,omitempty"`
}

// WindowDestroyed names the window by WindowId or, when Window is zero, by
// its window-server id.
type WindowDestroyed struct {
	Window   app.WindowId      `json:"window"`
	ServerID platform.WindowID `json:"server_id,omitempty"`
}

type WindowMinimized struct {
	Window app.WindowId `json:"window"`
}

type WindowDeminiaturized struct {
	Window app.WindowId `json:"window"`
}

// WindowFrameChanged reports a window's new frame. LastSeen is the newest
// transaction the reporter had applied when it observed the frame; zero when
// the report comes from the window server rather than a worker.
type WindowFrameChanged struct {
	Window   app.WindowId      `json:"window"`
	ServerID platform.WindowID `json:"server_id,omitempty"`
	Frame    platform.Rect     `json:"frame"`
	LastSeen txn.ID            `json:"last_seen,omitempty"`
}

type WindowTitleChanged struct {
	Window   app.WindowId      `json:"window"`
	ServerID platform.WindowID `json:"server_id,omitempty"`
	Title    string            `json:"title"`
}

// WindowFocused reports the window the window server now considers active.
// Window servers that only report focus per window, rather than per
// application, send this instead of the application activation events.
type WindowFocused struct {
	ServerID platform.WindowID `json:"server_id"`
}

type MouseMovedOverWindow struct {
	ServerID platform.WindowID `json:"server_id"`
}

// ResyncAppForWindow asks the owner of a window to re-enumerate its windows.
type ResyncAppForWindow struct {
	ServerID platform.WindowID          `json:"server_id"`
	Info     *platform.WindowServerInfo `json:"info,omitempty"`
}

type ScreenParametersChanged struct {
	Screens []Screen `json:"screens"`
}

// SpaceChanged reports the space now shown on each screen, by screen index.
type SpaceChanged struct {
	Spaces []platform.SpaceID `json:"spaces"`
}

type MenuOpened struct{}

type MenuClosed struct{}

type SystemWoke struct{}

// WakeRecovery carries the window-server snapshot taken shortly after wake.
type WakeRecovery struct {
	Snapshot []platform.WindowServerInfo `json:"snapshot"`
}

type PowerModeChanged struct {
	LowPower bool `json:"low_power"`
}

type RaiseCompleted struct {
	Window app.WindowId `json:"window"`
	Seq    uint64       `json:"seq"`
}

type RaiseTimeout struct {
	Seq uint64 `json:"seq"`
}

// CommandKind names a user command.
type CommandKind string

const (
	CmdSwitchWorkspace         CommandKind = "switch_workspace"
	CmdMoveWindowToWorkspace   CommandKind = "move_window_to_workspace"
	CmdToggleFloating          CommandKind = "toggle_floating"
	CmdNextLayout              CommandKind = "next_layout"
	CmdToggleFocusFollowsMouse CommandKind = "toggle_focus_follows_mouse"
	CmdRetile                  CommandKind = "retile"
	CmdDebug                   CommandKind = "debug"
)

// Command is a user request from a hotkey, the control socket or MCP.
// Index is the target workspace for the workspace commands.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Index int         `json:"index,omitempty"`
}

func (ApplicationLaunched) Type() string            { return "application_launched" }
func (ApplicationTerminated) Type() string          { return "application_terminated" }
func (ApplicationThreadTerminated) Type() string    { return "application_thread_terminated" }
func (ApplicationActivated) Type() string           { return "application_activated" }
func (ApplicationDeactivated) Type() string         { return "application_deactivated" }
func (ApplicationGloballyActivated) Type() string   { return "application_globally_activated" }
func (ApplicationGloballyDeactivated) Type() string { return "application_globally_deactivated" }
func (ApplicationMainWindowChanged) Type() string   { return "application_main_window_changed" }
func (WindowsDiscovered) Type() string              { return "windows_discovered" }
func (WindowCreated) Type() string                  { return "window_created" }
func (WindowDestroyed) Type() string                { return "window_destroyed" }
func (WindowMinimized) Type() string                { return "window_minimized" }
func (WindowDeminiaturized) Type() string           { return "window_deminiaturized" }
func (WindowFrameChanged) Type() string             { return "window_frame_changed" }
func (WindowTitleChanged) Type() string             { return "window_title_changed" }
func (WindowFocused) Type() string                  { return "window_focused" }
func (MouseMovedOverWindow) Type() string           { return "mouse_moved_over_window" }
func (ResyncAppForWindow) Type() string             { return "resync_app_for_window" }
func (ScreenParametersChanged) Type() string        { return "screen_parameters_changed" }
func (SpaceChanged) Type() string                   { return "space_changed" }
func (MenuOpened) Type() string                     { return "menu_opened" }
func (MenuClosed) Type() string                     { return "menu_closed" }
func (SystemWoke) Type() string                     { return "system_woke" }
func (WakeRecovery) Type() string                   { return "wake_recovery" }
func (PowerModeChanged) Type() string               { return "power_mode_changed" }
func (RaiseCompleted) Type() string                 { return "raise_completed" }
func (RaiseTimeout) Type() string                   { return "raise_timeout" }
func (Command) Type() string                        { return "command" }

func decodeAs[T Event](data json.RawMessage) (Event, error) {
	var ev T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

var eventDecoders = map[string]func(json.RawMessage) (Event, error){
	ApplicationLaunched{}.Type():            decodeAs[ApplicationLaunched],
	ApplicationTerminated{}.Type():          decodeAs[ApplicationTerminated],
	ApplicationThreadTerminated{}.Type():    decodeAs[ApplicationThreadTerminated],
	ApplicationActivated{}.Type():           decodeAs[ApplicationActivated],
	ApplicationDeactivated{}.Type():         decodeAs[ApplicationDeactivated],
	ApplicationGloballyActivated{}.Type():   decodeAs[ApplicationGloballyActivated],
	ApplicationGloballyDeactivated{}.Type(): decodeAs[ApplicationGloballyDeactivated],
	ApplicationMainWindowChanged{}.Type():   decodeAs[ApplicationMainWindowChanged],
	WindowsDiscovered{}.Type():              decodeAs[WindowsDiscovered],
	WindowCreated{}.Type():                  decodeAs[WindowCreated],
	WindowDestroyed{}.Type():                decodeAs[WindowDestroyed],
	WindowMinimized{}.Type():                decodeAs[WindowMinimized],
	WindowDeminiaturized{}.Type():           decodeAs[WindowDeminiaturized],
	WindowFrameChanged{}.Type():             decodeAs[WindowFrameChanged],
	WindowTitleChanged{}.Type():             decodeAs[WindowTitleChanged],
	WindowFocused{}.Type():                  decodeAs[WindowFocused],
	MouseMovedOverWindow{}.Type():           decodeAs[MouseMovedOverWindow],
	ResyncAppForWindow{}.Type():             decodeAs[ResyncAppForWindow],
	ScreenParametersChanged{}.Type():        decodeAs[ScreenParametersChanged],
	SpaceChanged{}.Type():                   decodeAs[SpaceChanged],
	MenuOpened{}.Type():                     decodeAs[MenuOpened],
	MenuClosed{}.Type():                     decodeAs[MenuClosed],
	SystemWoke{}.Type():                     decodeAs[SystemWoke],
	WakeRecovery{}.Type():                   decodeAs[WakeRecovery],
	PowerModeChanged{}.Type():               decodeAs[PowerModeChanged],
	RaiseCompleted{}.Type():                 decodeAs[RaiseCompleted],
	RaiseTimeout{}.Type():                   decodeAs[RaiseTimeout],
	Command{}.Type():                        decodeAs[Command],
}

// envelope is one recorded event line. Seq counts recorded events from 1 so
// a reordered or spliced file is detected on replay.
type envelope struct {
	Seq  uint64          `json:"seq"`
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TimedEvent is an event with the reactor time at which it was handled.
type TimedEvent struct {
	Seq   uint64
	Time  time.Time
	Event Event
}

func encodeEvent(seq uint64, at time.Time, ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	return json.Marshal(envelope{Seq: seq, Time: at, Type: ev.Type(), Data: data})
}

func decodeEvent(line []byte) (TimedEvent, error) {
	var env envelope
	if err := decodeStrict(line, &env); err != nil {
		return TimedEvent{}, err
	}
	if env.Seq == 0 {
		return TimedEvent{}, errors.New("missing seq")
	}
	decode, ok := eventDecoders[env.Type]
	if !ok {
		return TimedEvent{}, fmt.Errorf("unknown event type %q", env.Type)
	}
	ev, err := decode(env.Data)
	if err != nil {
		return TimedEvent{}, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return TimedEvent{Seq: env.Seq, Time: env.Time, Event: ev}, nil
}

// decodeStrict unmarshals one JSON value, rejecting unknown fields and
// trailing data.
func decodeStrict(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// recordable reports whether ev belongs to the recorded event set.
func recordable(ev Event) bool {
	_, ok := eventDecoders[ev.Type()]
	return ok
}
