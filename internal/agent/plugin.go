package agent

import (
	"context"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// Plugin observes and can veto agent activity. OnBeforeAction errors
// abort the action; OnAfterAction and OnAfterExecute errors are logged
// and otherwise ignored.
type Plugin interface {
	Name() string
	OnBeforeAction(ctx context.Context, action *core.Action) error
	OnAfterAction(ctx context.Context, action *core.Action, result error) error
	OnBeforeExecute(ctx context.Context, phase core.PhaseID, process core.ProcessID) error
	OnAfterExecute(ctx context.Context, phase core.PhaseID, process core.ProcessID, result error) error
}

// BasePlugin provides no-op implementations so plugins only override
// what they need.
type BasePlugin struct {
	PluginName string
}

// Name implements Plugin.
func (p BasePlugin) Name() string { return p.PluginName }

// OnBeforeAction implements Plugin.
func (p BasePlugin) OnBeforeAction(context.Context, *core.Action) error { return nil }

// OnAfterAction implements Plugin.
func (p BasePlugin) OnAfterAction(context.Context, *core.Action, error) error { return nil }

// OnBeforeExecute implements Plugin.
func (p BasePlugin) OnBeforeExecute(context.Context, core.PhaseID, core.ProcessID) error { return nil }

// OnAfterExecute implements Plugin.
func (p BasePlugin) OnAfterExecute(context.Context, core.PhaseID, core.ProcessID, error) error {
	return nil
}
