package hotkeys

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/reactor"
)

// Binding ties a key sequence to the reactor command it submits.
type Binding struct {
	Keys    string
	Command reactor.Command
}

func (b Binding) String() string {
	if b.Command.Kind == reactor.CmdSwitchWorkspace || b.Command.Kind == reactor.CmdMoveWindowToWorkspace {
		return fmt.Sprintf("%s -> %s(%d)", b.Keys, b.Command.Kind, b.Command.Index)
	}
	return fmt.Sprintf("%s -> %s", b.Keys, b.Command.Kind)
}

// Bindings flattens the configured hotkeys. Unbound actions are skipped.
func Bindings(hk config.Hotkeys) []Binding {
	var out []Binding
	add := func(keys string, cmd reactor.Command) {
		if keys != "" {
			out = append(out, Binding{Keys: keys, Command: cmd})
		}
	}

	add(hk.NextLayout, reactor.Command{Kind: reactor.CmdNextLayout})
	add(hk.ToggleFloating, reactor.Command{Kind: reactor.CmdToggleFloating})
	add(hk.ToggleFocusFollowsMouse, reactor.Command{Kind: reactor.CmdToggleFocusFollowsMouse})
	add(hk.Debug, reactor.Command{Kind: reactor.CmdDebug})
	for i, keys := range hk.Workspaces {
		add(keys, reactor.Command{Kind: reactor.CmdSwitchWorkspace, Index: i})
	}
	for i, keys := range hk.MoveToWorkspace {
		add(keys, reactor.Command{Kind: reactor.CmdMoveWindowToWorkspace, Index: i})
	}
	return out
}
