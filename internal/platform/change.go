package platform

// ChangeKind classifies a notification pushed by the window server.
type ChangeKind int

const (
	ChangeFrame ChangeKind = iota
	ChangeDestroyed
	ChangeTitle
	ChangeState
	ChangeClientList
	ChangeSpace
	ChangeActiveWindow
	ChangePointerEnter
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeFrame:
		return "frame"
	case ChangeDestroyed:
		return "destroyed"
	case ChangeTitle:
		return "title"
	case ChangeState:
		return "state"
	case ChangeClientList:
		return "client_list"
	case ChangeSpace:
		return "space"
	case ChangeActiveWindow:
		return "active_window"
	case ChangePointerEnter:
		return "pointer_enter"
	default:
		return "unknown"
	}
}

// Change is a window-server notification. Window is zero for root-level
// changes (client list, space, active window).
type Change struct {
	Kind   ChangeKind
	Window WindowID
	Frame  Rect
}
