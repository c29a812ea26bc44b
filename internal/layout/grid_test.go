package layout

import (
	"testing"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	tests := []struct {
		n, rows, cols int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{5, 2, 3},
		{9, 3, 3},
		{10, 3, 4},
	}
	for _, tt := range tests {
		rows, cols := GridSize(tt.n)
		assert.Equal(t, tt.rows, rows, "rows for %d", tt.n)
		assert.Equal(t, tt.cols, cols, "cols for %d", tt.n)
	}
}

func TestTile_MaxWindowWidthDoesNotCompressGrid(t *testing.T) {
	layout := &config.Layout{
		Mode:           config.LayoutModeFixed,
		FixedGrid:      config.FixedGrid{Rows: 1, Cols: 2},
		TileRegion:     config.TileRegion{Type: config.RegionFull},
		MaxWindowWidth: 50,
	}

	cells, err := tile(2, cell{Width: 210, Height: 100}, layout, 10)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	// slot width (210-30)/2 = 90, centred 50px window: offset 20.
	assert.Equal(t, 30, cells[0].X)
	assert.Equal(t, 130, cells[1].X)
	assert.Equal(t, 50, cells[0].Width)
	assert.Equal(t, 50, cells[1].Width)
}

func TestTile_ErrorsWhenInsufficientSpace(t *testing.T) {
	layout := &config.Layout{
		Mode:       config.LayoutModeFixed,
		FixedGrid:  config.FixedGrid{Rows: 1, Cols: 2},
		TileRegion: config.TileRegion{Type: config.RegionFull},
	}
	_, err := tile(2, cell{Width: 20, Height: 10}, layout, 20)
	require.Error(t, err)
}

func TestTile_FlexibleLastRowStretches(t *testing.T) {
	layout := &config.Layout{Mode: config.LayoutModeAuto, FlexibleLastRow: true}

	cells, err := tile(3, cell{Width: 400, Height: 200}, layout, 0)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, cell{X: 0, Y: 0, Width: 200, Height: 100}, cells[0])
	assert.Equal(t, cell{X: 200, Y: 0, Width: 200, Height: 100}, cells[1])
	assert.Equal(t, cell{X: 0, Y: 100, Width: 400, Height: 100}, cells[2])
}

func TestTile_FixedGridCapsCount(t *testing.T) {
	layout := &config.Layout{Mode: config.LayoutModeFixed, FixedGrid: config.FixedGrid{Rows: 1, Cols: 1}}
	cells, err := tile(4, cell{Width: 100, Height: 100}, layout, 0)
	require.NoError(t, err)
	assert.Len(t, cells, 1)
}

func TestMasterStack(t *testing.T) {
	ms := config.MasterStack{MasterWidthPercent: 50, MaxStackRows: 2, MaxStackCols: 1}

	cells, err := masterStack(3, cell{Width: 400, Height: 200}, ms, 0)
	require.NoError(t, err)
	assert.Equal(t, []cell{
		{X: 0, Y: 0, Width: 200, Height: 200},
		{X: 200, Y: 0, Width: 200, Height: 100},
		{X: 200, Y: 100, Width: 200, Height: 100},
	}, cells)

	capped, err := masterStack(6, cell{Width: 400, Height: 200}, ms, 0)
	require.NoError(t, err)
	assert.Len(t, capped, 3, "stack is capped at max_stack_rows*max_stack_cols")
}

func TestApplyRegion_CustomClampsToMinimumSize(t *testing.T) {
	region := config.TileRegion{Type: config.RegionCustom, WidthPercent: 1, HeightPercent: 1}
	adjusted := applyRegion(cell{Width: 10, Height: 10}, region)
	assert.Equal(t, 1, adjusted.Width)
	assert.Equal(t, 1, adjusted.Height)
}

func TestApplyRegion_RightHalf(t *testing.T) {
	adjusted := applyRegion(cell{X: 100, Width: 800, Height: 600}, config.TileRegion{Type: config.RegionRightHalf})
	assert.Equal(t, cell{X: 500, Width: 400, Height: 600}, adjusted)
}
