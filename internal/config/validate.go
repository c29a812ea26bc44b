package config

import (
	"fmt"
	"strings"
)

// Source locates a value in a YAML file.
type Source struct {
	File   string
	Line   int
	Column int
}

// ValidationError reports an invalid setting by its YAML path. Source is
// filled in when the value came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.AnimationFPS <= 0 {
		return &ValidationError{Path: "animation_fps", Err: fmt.Errorf("animation_fps must be > 0")}
	}
	if c.AnimationDuration < 0 {
		return &ValidationError{Path: "animation_duration", Err: fmt.Errorf("animation_duration must be >= 0")}
	}
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.ScreenPadding.Top < 0 || c.ScreenPadding.Bottom < 0 || c.ScreenPadding.Left < 0 || c.ScreenPadding.Right < 0 {
		return &ValidationError{Path: "screen_padding", Err: fmt.Errorf("screen_padding values must be >= 0")}
	}
	if c.WorkspacesPerSpace < 1 {
		return &ValidationError{Path: "workspaces_per_space", Err: fmt.Errorf("workspaces_per_space must be >= 1")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval_ms", Err: fmt.Errorf("reconcile_interval_ms must be >= 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}
	if _, ok := c.Layouts[c.DefaultLayout]; !ok {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout %q not found in layouts", c.DefaultLayout)}
	}
	for name, layout := range c.Layouts {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts contains an empty name")}
		}
		if err := validateLayout(&layout); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}

	if len(c.Hotkeys.Workspaces) > c.WorkspacesPerSpace {
		return &ValidationError{Path: "hotkeys.workspaces", Err: fmt.Errorf("%d bindings for %d workspaces", len(c.Hotkeys.Workspaces), c.WorkspacesPerSpace)}
	}
	if len(c.Hotkeys.MoveToWorkspace) > c.WorkspacesPerSpace {
		return &ValidationError{Path: "hotkeys.move_to_workspace", Err: fmt.Errorf("%d bindings for %d workspaces", len(c.Hotkeys.MoveToWorkspace), c.WorkspacesPerSpace)}
	}

	return nil
}

// validateLayout checks if a layout configuration is valid.
func validateLayout(layout *Layout) error {
	switch layout.Mode {
	case LayoutModeAuto, LayoutModeFixed, LayoutModeVertical, LayoutModeHorizontal, LayoutModeMasterStack:
	default:
		return fmt.Errorf("invalid mode %q", layout.Mode)
	}

	if layout.Mode == LayoutModeFixed {
		if layout.FixedGrid.Rows <= 0 || layout.FixedGrid.Cols <= 0 {
			return fmt.Errorf("fixed mode requires rows and cols to be positive")
		}
	}

	if layout.Mode == LayoutModeMasterStack {
		ms := layout.MasterStack
		if ms.MasterWidthPercent < 10 || ms.MasterWidthPercent > 90 {
			return fmt.Errorf("master_stack.master_width_percent must be between 10 and 90")
		}
		if ms.MaxStackRows < 1 || ms.MaxStackCols < 1 {
			return fmt.Errorf("master_stack.max_stack_rows and max_stack_cols must be >= 1")
		}
	}

	if layout.MaxWindowWidth < 0 || layout.MaxWindowHeight < 0 {
		return fmt.Errorf("max_window_width/height must be >= 0")
	}

	region := layout.TileRegion
	switch region.Type {
	case RegionFull, RegionLeftHalf, RegionRightHalf, RegionTopHalf, RegionBottomHalf:
	case RegionCustom:
		if region.XPercent < 0 || region.XPercent > 100 || region.YPercent < 0 || region.YPercent > 100 {
			return fmt.Errorf("x_percent and y_percent must be between 0 and 100")
		}
		if region.WidthPercent <= 0 || region.WidthPercent > 100 || region.HeightPercent <= 0 || region.HeightPercent > 100 {
			return fmt.Errorf("width_percent and height_percent must be between 1 and 100")
		}
		if region.XPercent+region.WidthPercent > 100 || region.YPercent+region.HeightPercent > 100 {
			return fmt.Errorf("custom region must fit inside the screen")
		}
	default:
		return fmt.Errorf("invalid region type %q", region.Type)
	}

	return nil
}
