package platform

import "math"

// Point is a position in screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect describes a rectangular region in screen coordinates. Coordinates are
// fractional so interpolated animation frames keep their precision until
// they are handed to the window server.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect builds a Rect from integer pixel values.
func NewRect(x, y, width, height int) Rect {
	return Rect{X: float64(x), Y: float64(y), Width: float64(width), Height: float64(height)}
}

func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// WithOrigin returns r moved to p.
func (r Rect) WithOrigin(p Point) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// WithSize returns r resized to s, keeping its origin.
func (r Rect) WithSize(s Size) Rect {
	r.Width, r.Height = s.Width, s.Height
	return r
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Round snaps every coordinate to the nearest pixel.
func (r Rect) Round() Rect {
	return Rect{
		X:      math.Round(r.X),
		Y:      math.Round(r.Y),
		Width:  math.Round(r.Width),
		Height: math.Round(r.Height),
	}
}

// Ints returns the rounded pixel geometry.
func (r Rect) Ints() (x, y, width, height int) {
	rr := r.Round()
	return int(rr.X), int(rr.Y), int(rr.Width), int(rr.Height)
}

// SameAs reports whether two rects land on the same pixels. Window servers
// round geometry, so exact float equality is too strict for acknowledgments.
func (r Rect) SameAs(o Rect) bool {
	return r.Round() == o.Round()
}

// Inset shrinks r by the given margins, clamping to a 1x1 minimum.
func (r Rect) Inset(top, right, bottom, left float64) Rect {
	out := Rect{
		X:      r.X + left,
		Y:      r.Y + top,
		Width:  r.Width - left - right,
		Height: r.Height - top - bottom,
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}
