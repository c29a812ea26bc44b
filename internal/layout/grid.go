package layout

import (
	"fmt"
	"math"

	"github.com/1broseidon/tilewm/internal/config"
)

// cell is an integer pixel rectangle. Tiling runs on whole pixels so gaps
// stay exact; results are converted to platform.Rect at the edge.
type cell struct {
	X, Y, Width, Height int
}

// GridSize determines the grid dimensions for n windows: the column count is
// the ceiling of the square root and rows follow from it.
func GridSize(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}

// tile computes up to n cells inside area. Fixed grids and master-stack
// layouts have a capacity and may return fewer cells than n.
func tile(n int, area cell, layout *config.Layout, gap int) ([]cell, error) {
	if n == 0 {
		return nil, nil
	}

	flexible := layout.FlexibleLastRow
	var rows, cols int
	switch layout.Mode {
	case config.LayoutModeAuto:
		rows, cols = GridSize(n)
	case config.LayoutModeFixed:
		rows, cols = layout.FixedGrid.Rows, layout.FixedGrid.Cols
		n = min(n, rows*cols)
		flexible = false
	case config.LayoutModeVertical:
		rows, cols = n, 1
		flexible = false
	case config.LayoutModeHorizontal:
		rows, cols = 1, n
		flexible = false
	case config.LayoutModeMasterStack:
		return masterStack(n, area, layout.MasterStack, gap)
	default:
		return nil, fmt.Errorf("unsupported layout mode: %q", layout.Mode)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}

	slotW := (area.Width - (cols+1)*gap) / cols
	slotH := (area.Height - (rows+1)*gap) / rows
	if slotW <= 0 || slotH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for layout: area=%dx%d rows=%d cols=%d gap=%d",
			area.Width, area.Height, rows, cols, gap,
		)
	}
	winW := capDim(slotW, layout.MaxWindowWidth)
	winH := capDim(slotH, layout.MaxWindowHeight)

	lastRow := rows - 1
	inLastRow := n - lastRow*cols
	if inLastRow <= 0 {
		inLastRow = cols
	}
	stretchLast := flexible && inLastRow < cols
	lastSlotW := slotW
	if stretchLast {
		lastSlotW = (area.Width - (inLastRow+1)*gap) / inLastRow
	}

	cells := make([]cell, n)
	for i := range cells {
		row, col := i/cols, i%cols
		sw, w := slotW, winW
		if stretchLast && row == lastRow {
			sw, w = lastSlotW, capDim(lastSlotW, layout.MaxWindowWidth)
		}
		x := area.X + gap + col*(sw+gap) + (sw-w)/2
		y := area.Y + gap + row*(slotH+gap) + (slotH-winH)/2
		cells[i] = cell{X: x, Y: y, Width: w, Height: winH}
	}
	return cells, nil
}

func capDim(v, limit int) int {
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

// masterStack puts the first window in a left pane of MasterWidthPercent
// and arranges the rest in a grid on the right.
func masterStack(n int, area cell, ms config.MasterStack, gap int) ([]cell, error) {
	masterW := area.Width*ms.MasterWidthPercent/100 - gap
	fullH := area.Height - 2*gap
	master := cell{X: area.X + gap, Y: area.Y + gap, Width: masterW, Height: fullH}
	if n == 1 {
		if masterW <= 0 || fullH <= 0 {
			return nil, fmt.Errorf("insufficient space for master pane: area=%dx%d gap=%d", area.Width, area.Height, gap)
		}
		return []cell{master}, nil
	}

	stack := n - 1
	stackCols := max(1, min(ms.MaxStackCols, int(math.Ceil(float64(stack)/float64(ms.MaxStackRows)))))
	stackRows := min(ms.MaxStackRows, int(math.Ceil(float64(stack)/float64(stackCols))))
	stack = min(stack, stackRows*stackCols)

	rightX := area.X + masterW + 2*gap
	rightW := area.Width - masterW - 3*gap
	cellW := (rightW - (stackCols-1)*gap) / stackCols
	cellH := (fullH - (stackRows-1)*gap) / stackRows
	if masterW <= 0 || cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for master-stack layout: area=%dx%d master=%d cell=%dx%d gap=%d",
			area.Width, area.Height, masterW, cellW, cellH, gap,
		)
	}

	cells := make([]cell, 0, stack+1)
	cells = append(cells, master)
	for i := 0; i < stack; i++ {
		row, col := i/stackCols, i%stackCols
		cells = append(cells, cell{
			X:      rightX + col*(cellW+gap),
			Y:      area.Y + gap + row*(cellH+gap),
			Width:  cellW,
			Height: cellH,
		})
	}
	return cells, nil
}

// applyRegion narrows area to the layout's tile region.
func applyRegion(area cell, region config.TileRegion) cell {
	out := area
	switch region.Type {
	case config.RegionLeftHalf:
		out.Width = area.Width / 2
	case config.RegionRightHalf:
		out.X = area.X + area.Width/2
		out.Width = area.Width / 2
	case config.RegionTopHalf:
		out.Height = area.Height / 2
	case config.RegionBottomHalf:
		out.Y = area.Y + area.Height/2
		out.Height = area.Height / 2
	case config.RegionCustom:
		out.X = area.X + area.Width*region.XPercent/100
		out.Y = area.Y + area.Height*region.YPercent/100
		out.Width = area.Width * region.WidthPercent / 100
		out.Height = area.Height * region.HeightPercent / 100
	}
	out.Width = max(out.Width, 1)
	out.Height = max(out.Height, 1)
	return out
}
