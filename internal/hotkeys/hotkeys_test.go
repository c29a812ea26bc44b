package hotkeys

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/reactor"
)

func TestBindingsDefaults(t *testing.T) {
	bindings := Bindings(config.DefaultConfig().Hotkeys)
	require.Len(t, bindings, 12)

	assert.Equal(t, Binding{Keys: "Mod4-Mod1-space", Command: reactor.Command{Kind: reactor.CmdNextLayout}}, bindings[0])
	assert.Equal(t, Binding{Keys: "Mod4-2", Command: reactor.Command{Kind: reactor.CmdSwitchWorkspace, Index: 1}}, bindings[5])
	assert.Equal(t, Binding{Keys: "Mod4-Shift-4", Command: reactor.Command{Kind: reactor.CmdMoveWindowToWorkspace, Index: 3}}, bindings[11])
}

func TestBindingsSkipUnbound(t *testing.T) {
	bindings := Bindings(config.Hotkeys{
		ToggleFloating: "Mod4-f",
		Workspaces:     []string{"", "Mod4-2"},
	})
	assert.Equal(t, []Binding{
		{Keys: "Mod4-f", Command: reactor.Command{Kind: reactor.CmdToggleFloating}},
		{Keys: "Mod4-2", Command: reactor.Command{Kind: reactor.CmdSwitchWorkspace, Index: 1}},
	}, bindings)
}

func TestBindingString(t *testing.T) {
	assert.Equal(t, "Mod4-1 -> switch_workspace(0)",
		Binding{Keys: "Mod4-1", Command: reactor.Command{Kind: reactor.CmdSwitchWorkspace}}.String())
	assert.Equal(t, "Mod4-d -> debug",
		Binding{Keys: "Mod4-d", Command: reactor.Command{Kind: reactor.CmdDebug}}.String())
}

func TestIgnoreMasks(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	num := uint16(xproto.ModMask2)
	assert.ElementsMatch(t, []uint16{0, caps, num, caps | num}, ignoreMasks([]uint16{caps, num}))
	assert.Equal(t, []uint16{0}, ignoreMasks(nil))
}
