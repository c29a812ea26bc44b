package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefaultConfig_ValidAndHasBuiltinLayouts(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Layouts, DefaultBuiltinLayout)
	assert.Equal(t, 300*time.Millisecond, cfg.AnimationDurationValue())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, res.File)
	assert.Equal(t, DefaultConfig(), res.Config)
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBuiltinLayout, res.Config.DefaultLayout)
	assert.Equal(t, BuiltinLayouts(), res.Config.Layouts)
}

func TestLoadFromPath_OverridesAndMergesLayouts(t *testing.T) {
	path := writeConfig(t, `
animate: false
animation_fps: 120
animation_duration: 0.5
focus_follows_mouse: true
default_layout: wide
layouts:
  wide:
    mode: fixed
    tile_region:
      type: full
    fixed_grid:
      rows: 1
      cols: 3
hotkeys:
  workspaces: ["Mod4-a"]
`)
	res, err := LoadFromPath(path)
	require.NoError(t, err)

	cfg := res.Config
	assert.False(t, cfg.Animate)
	assert.Equal(t, 120.0, cfg.AnimationFPS)
	assert.Equal(t, 500*time.Millisecond, cfg.AnimationDurationValue())
	assert.True(t, cfg.FocusFollowsMouse)
	assert.Equal(t, []string{"Mod4-a"}, cfg.Hotkeys.Workspaces)
	assert.Equal(t, "Mod4-Mod1-space", cfg.Hotkeys.NextLayout)

	assert.Contains(t, cfg.Layouts, "grid", "builtins survive a file that defines layouts")
	require.Contains(t, cfg.Layouts, "wide")
	assert.Equal(t, FixedGrid{Rows: 1, Cols: 3}, cfg.Layouts["wide"].FixedGrid)
	assert.Equal(t, "wide", cfg.LayoutNames()[0])
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "no_such_key: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_key")
}

func TestLoadFromPath_ValidationErrorHasSourceLine(t *testing.T) {
	path := writeConfig(t, "animate: true\ngap_size: -4\n")
	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "gap_size", verr.Path)
	assert.Equal(t, 2, verr.Source.Line)
	assert.Contains(t, err.Error(), path+":2:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "zero fps", mutate: func(c *Config) { c.AnimationFPS = 0 }, path: "animation_fps"},
		{name: "negative duration", mutate: func(c *Config) { c.AnimationDuration = -1 }, path: "animation_duration"},
		{name: "no workspaces", mutate: func(c *Config) { c.WorkspacesPerSpace = 0 }, path: "workspaces_per_space"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, path: "log_level"},
		{name: "unknown default layout", mutate: func(c *Config) { c.DefaultLayout = "missing" }, path: "default_layout"},
		{
			name: "too many workspace hotkeys",
			mutate: func(c *Config) {
				c.WorkspacesPerSpace = 1
				c.Hotkeys.MoveToWorkspace = nil
			},
			path: "hotkeys.workspaces",
		},
		{
			name: "master stack out of range",
			mutate: func(c *Config) {
				l := c.Layouts["master-stack"]
				l.MasterStack.MasterWidthPercent = 95
				c.Layouts["master-stack"] = l
			},
			path: "layouts.master-stack",
		},
		{
			name: "custom region overflows",
			mutate: func(c *Config) {
				c.Layouts["odd"] = Layout{
					Mode:       LayoutModeAuto,
					TileRegion: TileRegion{Type: RegionCustom, XPercent: 60, WidthPercent: 60, HeightPercent: 100},
				}
			},
			path: "layouts.odd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestLayoutNames_DefaultFirstThenSorted(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"grid", "columns", "master-stack", "monocle", "rows"}, cfg.LayoutNames())
}

func TestSave_OmitsUnchangedBuiltins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layouts["wide"] = Layout{Mode: LayoutModeHorizontal, TileRegion: TileRegion{Type: RegionFull}}
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wide:")
	assert.NotContains(t, string(data), "master-stack:")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Layouts, res.Config.Layouts)
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, "gap_size: 12\nhotkeys:\n  workspaces: [\"Mod4-a\", \"Mod4-b\"]\n")
	res, err := LoadFromPath(path)
	require.NoError(t, err)

	value, src, err := Explain(res, "gap_size")
	require.NoError(t, err)
	assert.Equal(t, 12, value)
	assert.Equal(t, Source{File: path, Line: 1, Column: 11}, src)
	assert.Equal(t, path+":1:11", src.Describe())

	value, src, err = Explain(res, "hotkeys.workspaces.1")
	require.NoError(t, err)
	assert.Equal(t, "Mod4-b", value)
	assert.Empty(t, src.File, "sequence elements are not tracked individually")

	value, src, err = Explain(res, "animation_fps")
	require.NoError(t, err)
	assert.Equal(t, 60, value)
	assert.Equal(t, "default", src.Describe())

	value, _, err = Explain(res, "layouts." + DefaultBuiltinLayout)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, value)

	_, _, err = Explain(res, "gap_size.x")
	assert.EqualError(t, err, "unknown path: gap_size.x")
	_, _, err = Explain(res, "hotkeys.workspaces.9")
	assert.Error(t, err)
	_, _, err = Explain(nil, "gap_size")
	assert.Error(t, err)
}
