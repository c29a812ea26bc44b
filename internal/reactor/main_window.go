package reactor

import "github.com/1broseidon/tilewm/internal/app"

type mainWindowApp struct {
	isFrontmost      bool
	frontmostIsQuiet Quiet
	mainWindow       app.WindowId
}

// MainWindowTracker derives the globally focused window from application
// activation events. It is a pure reducer with no side effects.
type MainWindowTracker struct {
	apps            map[int32]*mainWindowApp
	globalFrontmost int32
	hasFrontmost    bool
}

func NewMainWindowTracker() *MainWindowTracker {
	return &MainWindowTracker{apps: make(map[int32]*mainWindowApp)}
}

// HandleEvent folds ev into the tracker. It returns the new main window when
// ev concerns the globally frontmost application on a non-quiet edge.
func (t *MainWindowTracker) HandleEvent(ev Event) (app.WindowId, bool) {
	var (
		pid   int32
		quiet Quiet
	)
	switch e := ev.(type) {
	case ApplicationLaunched:
		t.apps[e.PID] = &mainWindowApp{isFrontmost: e.IsFrontmost, mainWindow: e.MainWindow}
		pid = e.PID
	case ApplicationThreadTerminated:
		delete(t.apps, e.PID)
		return app.WindowId{}, false
	case ApplicationActivated:
		a, ok := t.apps[e.PID]
		if !ok {
			return app.WindowId{}, false
		}
		a.isFrontmost = true
		a.frontmostIsQuiet = e.Quiet
		pid, quiet = e.PID, e.Quiet
	case ApplicationDeactivated:
		if a, ok := t.apps[e.PID]; ok {
			a.isFrontmost = false
		}
		return app.WindowId{}, false
	case ApplicationGloballyActivated:
		t.globalFrontmost, t.hasFrontmost = e.PID, true
		a, ok := t.apps[e.PID]
		if !ok {
			return app.WindowId{}, false
		}
		pid, quiet = e.PID, a.frontmostIsQuiet
	case ApplicationGloballyDeactivated:
		if t.hasFrontmost && t.globalFrontmost == e.PID {
			t.hasFrontmost = false
		}
		return app.WindowId{}, false
	case ApplicationMainWindowChanged:
		a, ok := t.apps[e.PID]
		if !ok {
			return app.WindowId{}, false
		}
		a.mainWindow = e.Window
		pid, quiet = e.PID, e.Quiet
	default:
		return app.WindowId{}, false
	}

	if t.hasFrontmost && pid == t.globalFrontmost && !bool(quiet) {
		return t.MainWindow()
	}
	return app.WindowId{}, false
}

// MainWindow returns the main window of the globally frontmost application
// if that application is known and considers itself frontmost.
func (t *MainWindowTracker) MainWindow() (app.WindowId, bool) {
	if !t.hasFrontmost {
		return app.WindowId{}, false
	}
	a, ok := t.apps[t.globalFrontmost]
	if !ok || !a.isFrontmost || a.mainWindow.IsZero() {
		return app.WindowId{}, false
	}
	return a.mainWindow, true
}

// Frontmost returns the globally frontmost pid.
func (t *MainWindowTracker) Frontmost() (int32, bool) {
	return t.globalFrontmost, t.hasFrontmost
}
