package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Margins represents padding applied inside a screen before tiling.
type Margins struct {
	Top    int `yaml:"top" json:"top"`
	Bottom int `yaml:"bottom" json:"bottom"`
	Left   int `yaml:"left" json:"left"`
	Right  int `yaml:"right" json:"right"`
}

// LayoutMode defines how windows are arranged.
type LayoutMode string

const (
	LayoutModeAuto        LayoutMode = "auto"         // Dynamic grid based on count.
	LayoutModeFixed       LayoutMode = "fixed"        // Specific rows × cols.
	LayoutModeVertical    LayoutMode = "vertical"     // Single column stack.
	LayoutModeHorizontal  LayoutMode = "horizontal"   // Single row side-by-side.
	LayoutModeMasterStack LayoutMode = "master-stack" // Master pane left, stack grid right.
)

// RegionType defines tile region presets.
type RegionType string

const (
	RegionFull       RegionType = "full"
	RegionLeftHalf   RegionType = "left-half"
	RegionRightHalf  RegionType = "right-half"
	RegionTopHalf    RegionType = "top-half"
	RegionBottomHalf RegionType = "bottom-half"
	RegionCustom     RegionType = "custom"
)

// TileRegion defines the part of a screen windows are tiled into.
type TileRegion struct {
	Type          RegionType `yaml:"type" json:"type"`
	XPercent      int        `yaml:"x_percent" json:"x_percent,omitempty"`           // 0-100
	YPercent      int        `yaml:"y_percent" json:"y_percent,omitempty"`           // 0-100
	WidthPercent  int        `yaml:"width_percent" json:"width_percent,omitempty"`   // 0-100
	HeightPercent int        `yaml:"height_percent" json:"height_percent,omitempty"` // 0-100
}

// FixedGrid defines specific grid dimensions.
type FixedGrid struct {
	Rows int `yaml:"rows" json:"rows"`
	Cols int `yaml:"cols" json:"cols"`
}

// MasterStack defines the master-stack layout parameters.
type MasterStack struct {
	MasterWidthPercent int `yaml:"master_width_percent" json:"master_width_percent"` // 10-90
	MaxStackRows       int `yaml:"max_stack_rows" json:"max_stack_rows"`
	MaxStackCols       int `yaml:"max_stack_cols" json:"max_stack_cols"`
}

// Layout defines a tiling configuration.
type Layout struct {
	Mode            LayoutMode  `yaml:"mode" json:"mode"`
	TileRegion      TileRegion  `yaml:"tile_region" json:"tile_region"`
	FixedGrid       FixedGrid   `yaml:"fixed_grid,omitempty" json:"fixed_grid"`
	MasterStack     MasterStack `yaml:"master_stack,omitempty" json:"master_stack"`
	MaxWindowWidth  int         `yaml:"max_window_width" json:"max_window_width,omitempty"`   // 0 = unlimited
	MaxWindowHeight int         `yaml:"max_window_height" json:"max_window_height,omitempty"` // 0 = unlimited
	FlexibleLastRow bool        `yaml:"flexible_last_row" json:"flexible_last_row,omitempty"` // auto mode only
}

// Hotkeys maps actions to xgbutil keybind strings such as "Mod4-Mod1-space".
// An empty string leaves the action unbound.
type Hotkeys struct {
	NextLayout              string   `yaml:"next_layout"`
	ToggleFloating          string   `yaml:"toggle_floating"`
	ToggleFocusFollowsMouse string   `yaml:"toggle_focus_follows_mouse"`
	Debug                   string   `yaml:"debug"`
	Workspaces              []string `yaml:"workspaces"`        // index i switches to workspace i
	MoveToWorkspace         []string `yaml:"move_to_workspace"` // index i moves the focused window
}

// Config holds the application configuration.
type Config struct {
	Display            string            `yaml:"display,omitempty"`
	Animate            bool              `yaml:"animate"`
	AnimationFPS       float64           `yaml:"animation_fps"`
	AnimationDuration  float64           `yaml:"animation_duration"` // seconds
	LowPower           bool              `yaml:"low_power"`
	FocusFollowsMouse  bool              `yaml:"focus_follows_mouse"`
	GapSize            int               `yaml:"gap_size"`
	ScreenPadding      Margins           `yaml:"screen_padding"`
	DefaultLayout      string            `yaml:"default_layout"`
	Layouts            map[string]Layout `yaml:"layouts"`
	WorkspacesPerSpace int               `yaml:"workspaces_per_space"`
	RecordPath         string            `yaml:"record_path,omitempty"`
	LogLevel           string            `yaml:"log_level"`
	ReconcileInterval  int               `yaml:"reconcile_interval_ms"`
	Hotkeys            Hotkeys           `yaml:"hotkeys"`
}

func DefaultConfig() *Config {
	return &Config{
		Animate:            true,
		AnimationFPS:       60,
		AnimationDuration:  0.3,
		GapSize:            8,
		DefaultLayout:      DefaultBuiltinLayout,
		Layouts:            BuiltinLayouts(),
		WorkspacesPerSpace: 4,
		LogLevel:           "info",
		ReconcileInterval:  2000,
		Hotkeys: Hotkeys{
			NextLayout:              "Mod4-Mod1-space",
			ToggleFloating:          "Mod4-Mod1-f",
			ToggleFocusFollowsMouse: "Mod4-Mod1-m",
			Debug:                   "Mod4-Mod1-d",
			Workspaces:              []string{"Mod4-1", "Mod4-2", "Mod4-3", "Mod4-4"},
			MoveToWorkspace:         []string{"Mod4-Shift-1", "Mod4-Shift-2", "Mod4-Shift-3", "Mod4-Shift-4"},
		},
	}
}

// AnimationDurationValue returns AnimationDuration as a time.Duration.
func (c *Config) AnimationDurationValue() time.Duration {
	return time.Duration(c.AnimationDuration * float64(time.Second))
}

// ReconcileEvery returns the reconciler polling interval.
func (c *Config) ReconcileEvery() time.Duration {
	return time.Duration(c.ReconcileInterval) * time.Millisecond
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLayout retrieves a layout by name with validation.
func (c *Config) GetLayout(name string) (*Layout, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q not found", name)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", name, err)
	}

	return &layout, nil
}

// LayoutNames returns the configured layout names: the default layout first,
// then the rest in lexical order. Layout cycling follows this order.
func (c *Config) LayoutNames() []string {
	names := make([]string, 0, len(c.Layouts))
	for name := range c.Layouts {
		if name != c.DefaultLayout {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := c.Layouts[c.DefaultLayout]; ok {
		names = append([]string{c.DefaultLayout}, names...)
	}
	return names
}

// Save writes the configuration to path, or to the standard location when
// path is empty. Builtin layouts that were not changed are omitted.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	save.Layouts = layoutsForSave(c.Layouts)

	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func layoutsForSave(layouts map[string]Layout) map[string]Layout {
	builtin := BuiltinLayouts()
	out := make(map[string]Layout)
	for name, layout := range layouts {
		if base, ok := builtin[name]; ok && base == layout {
			continue
		}
		out[name] = layout
	}
	return out
}
