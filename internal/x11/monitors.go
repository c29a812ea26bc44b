package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor is a physical display. Usable excludes space reserved by docks
// and panels.
type Monitor struct {
	ID     int
	Name   string
	Bounds Geometry
	Usable Geometry
}

// Monitors retrieves all active monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	struts := c.dockStruts()

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		bounds := Geometry{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)}
		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			Bounds: bounds,
			Usable: struts.apply(bounds),
		})
	}

	return monitors, nil
}

// strutRect is a screen-edge area reserved by a dock, in root coordinates.
type strutRect struct {
	x1, y1, x2, y2 int
	edge           int
}

const (
	edgeTop = iota
	edgeBottom
	edgeLeft
	edgeRight
)

type strutSet []strutRect

// dockStruts collects _NET_WM_STRUT(_PARTIAL) reservations of every dock.
func (c *Connection) dockStruts() strutSet {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil
	}
	rootW, rootH := int(rootGeom.Width), int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}

	var set strutSet
	for _, windowID := range clients {
		if !c.isDock(windowID) {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID)
		if err != nil {
			s, err := ewmh.WmStrutGet(c.XUtil, windowID)
			if err != nil {
				continue
			}
			// Plain struts reserve the full edge.
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}
		}

		if sp.Top > 0 {
			set = append(set, strutRect{int(sp.TopStartX), 0, int(sp.TopEndX) + 1, int(sp.Top), edgeTop})
		}
		if sp.Bottom > 0 {
			set = append(set, strutRect{int(sp.BottomStartX), rootH - int(sp.Bottom), int(sp.BottomEndX) + 1, rootH, edgeBottom})
		}
		if sp.Left > 0 {
			set = append(set, strutRect{0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY) + 1, edgeLeft})
		}
		if sp.Right > 0 {
			set = append(set, strutRect{rootW - int(sp.Right), int(sp.RightStartY), rootW, int(sp.RightEndY) + 1, edgeRight})
		}
	}
	return set
}

func (c *Connection) isDock(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// apply shrinks a monitor by the struts that overlap it.
func (s strutSet) apply(m Geometry) Geometry {
	var top, bottom, left, right int
	for _, r := range s {
		w, h := overlap(m, r)
		if w <= 0 || h <= 0 {
			continue
		}
		switch r.edge {
		case edgeTop:
			top = max(top, h)
		case edgeBottom:
			bottom = max(bottom, h)
		case edgeLeft:
			left = max(left, w)
		case edgeRight:
			right = max(right, w)
		}
	}

	out := Geometry{
		X:      m.X + left,
		Y:      m.Y + top,
		Width:  max(m.Width-left-right, 1),
		Height: max(m.Height-top-bottom, 1),
	}
	return out
}

func overlap(m Geometry, r strutRect) (w, h int) {
	x1 := max(m.X, r.x1)
	y1 := max(m.Y, r.y1)
	x2 := min(m.X+m.Width, r.x2)
	y2 := min(m.Y+m.Height, r.y2)
	return x2 - x1, y2 - y1
}
