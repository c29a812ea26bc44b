package config

const DefaultBuiltinLayout = "grid"

// BuiltinLayouts returns the layouts every configuration starts with. Layouts
// defined in YAML are merged on top and may replace them by name.
func BuiltinLayouts() map[string]Layout {
	full := TileRegion{Type: RegionFull}
	return map[string]Layout{
		"grid": {
			Mode:            LayoutModeAuto,
			TileRegion:      full,
			FlexibleLastRow: true,
		},
		"columns": {
			Mode:       LayoutModeHorizontal,
			TileRegion: full,
		},
		"rows": {
			Mode:       LayoutModeVertical,
			TileRegion: full,
		},
		"monocle": {
			Mode:       LayoutModeFixed,
			TileRegion: full,
			FixedGrid:  FixedGrid{Rows: 1, Cols: 1},
		},
		"master-stack": {
			Mode:       LayoutModeMasterStack,
			TileRegion: full,
			MasterStack: MasterStack{
				MasterWidthPercent: 55,
				MaxStackRows:       4,
				MaxStackCols:       2,
			},
		},
	}
}
