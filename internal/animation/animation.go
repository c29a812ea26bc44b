// Package animation interpolates window frames between a start and an end
// rectangle and streams the intermediate positions to application workers.
package animation

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
	"github.com/hashicorp/go-multierror"
)

// Defaults used when the configuration leaves timing unset.
const (
	DefaultFPS      = 60.0
	DefaultDuration = 300 * time.Millisecond
)

// Sender delivers requests to one application. *app.Handle implements it.
type Sender interface {
	Send(req app.Request) error
}

// Context carries the runtime state an animation consults before it starts.
// The reactor owns it and updates LowPower and Animate as conditions change.
type Context struct {
	Clock    Clock
	Logger   *slog.Logger
	FPS      float64
	Duration time.Duration
	Animate  bool
	LowPower bool
}

// ShouldSkip reports whether an animation must jump straight to its final
// frames: animation is off, the layout change is a bulk resize, or the
// machine is in reduced-power mode.
func (c *Context) ShouldSkip(isResize bool) bool {
	return isResize || !c.Animate || c.LowPower
}

func (c *Context) clock() Clock {
	if c.Clock == nil {
		return SystemClock()
	}
	return c.Clock
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

type track struct {
	handle  Sender
	window  app.WindowId
	from    platform.Rect
	to      platform.Rect
	isFocus bool
	txid    txn.ID
}

// Animation moves a set of windows from their current to their target
// frames. It runs synchronously on the caller's goroutine.
type Animation struct {
	ctx    *Context
	tracks []track
}

// New creates an empty animation using ctx for timing and logging.
func New(ctx *Context) *Animation {
	return &Animation{ctx: ctx}
}

// Add schedules a window. Windows marked isFocus get their final size at
// their old origin before the first frame so they do not visibly pop.
func (a *Animation) Add(handle Sender, wid app.WindowId, from, to platform.Rect, isFocus bool, txid txn.ID) {
	a.tracks = append(a.tracks, track{
		handle:  handle,
		window:  wid,
		from:    from,
		to:      to,
		isFocus: isFocus,
		txid:    txid,
	})
}

// Len returns the number of scheduled windows.
func (a *Animation) Len() int {
	return len(a.tracks)
}

// Frames returns the number of frames for duration at fps.
func Frames(duration time.Duration, fps float64) int {
	return int(math.Round(duration.Seconds() * fps))
}

// Ease is a symmetric circular ease-in-out curve on [0, 1].
func Ease(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

// Interpolate blends origin and size of a and b independently per axis at
// the eased position of t.
func Interpolate(a, b platform.Rect, t float64) platform.Rect {
	s := Ease(t)
	return platform.Rect{
		X:      blend(a.X, b.X, s),
		Y:      blend(a.Y, b.Y, s),
		Width:  blend(a.Width, b.Width, s),
		Height: blend(a.Height, b.Height, s),
	}
}

func blend(a, b, s float64) float64 {
	return (1-s)*a + s*b
}

// Run plays the animation. Frame n is sent at start+n/fps; late frames are
// sent without sleeping. Only the midpoint and the final frame carry a size
// change, every other frame moves the window. Send failures are logged,
// collected and returned; they never stop the remaining windows.
func (a *Animation) Run() error {
	if len(a.tracks) == 0 {
		return nil
	}

	var result *multierror.Error
	send := func(t track, req app.Request) {
		if err := t.handle.Send(req); err != nil {
			a.ctx.logger().Debug("animation send failed", "window", t.window, "request", fmt.Sprintf("%T", req), "error", err)
			result = multierror.Append(result, fmt.Errorf("window %s: %w", t.window, err))
		}
	}

	for _, t := range a.tracks {
		send(t, app.BeginWindowAnimation{Window: t.window})
		if t.isFocus {
			send(t, app.SetWindowFrame{Window: t.window, Frame: t.from.WithSize(t.to.Size()), TxID: t.txid, Animating: true})
		}
	}

	fps := a.ctx.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	duration := a.ctx.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	frames := Frames(duration, fps)
	interval := time.Duration(float64(time.Second) / fps)

	clock := a.ctx.clock()
	start := clock.Now()
	next := make([]platform.Rect, len(a.tracks))
	for frame := 1; frame <= frames; frame++ {
		t := float64(frame) / float64(frames)
		for i, tr := range a.tracks {
			next[i] = Interpolate(tr.from, tr.to, t)
		}

		deadline := start.Add(time.Duration(frame) * interval)
		if wait := deadline.Sub(clock.Now()); wait > 0 {
			clock.Sleep(wait)
		}

		resize := frame*2 == frames || frame == frames
		for i, tr := range a.tracks {
			if resize {
				send(tr, app.SetWindowFrame{Window: tr.window, Frame: next[i].WithSize(tr.to.Size()), TxID: tr.txid, Animating: true})
			} else {
				send(tr, app.SetWindowPos{Window: tr.window, Origin: next[i].Origin(), TxID: tr.txid, Animating: true})
			}
		}
	}

	for _, t := range a.tracks {
		send(t, app.EndWindowAnimation{Window: t.window})
	}

	return result.ErrorOrNil()
}

// SkipToEnd sends every window straight to its final frame.
func (a *Animation) SkipToEnd() error {
	var result *multierror.Error
	for _, t := range a.tracks {
		if err := t.handle.Send(app.SetWindowFrame{Window: t.window, Frame: t.to, TxID: t.txid}); err != nil {
			a.ctx.logger().Debug("animation send failed", "window", t.window, "error", err)
			result = multierror.Append(result, fmt.Errorf("window %s: %w", t.window, err))
		}
	}
	return result.ErrorOrNil()
}

// Play runs the animation or skips it according to ctx.
func (a *Animation) Play(isResize bool) error {
	if a.ctx.ShouldSkip(isResize) {
		return a.SkipToEnd()
	}
	return a.Run()
}
