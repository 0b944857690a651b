// Package agent executes typed actions against the workspace. It is
// the only path by which the core mutates the filesystem: the
// orchestrator decides, the agent does.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/events"
	"github.com/cadenroberts/ollamabot/internal/logging"
)

// Delegator invokes a role-specific model on behalf of the agent.
type Delegator interface {
	Delegate(ctx context.Context, req DelegateRequest) (DelegateResult, error)
}

// ActionCallback observes every recorded action.
type ActionCallback func(action *core.Action)

// Agent is the typed-action dispatcher. All constructor methods route
// through a single dispatch pipeline that validates, executes, stamps
// metadata, and records.
type Agent struct {
	mu sync.Mutex

	workspace string
	sessionID string

	executing bool
	phase     core.PhaseID
	process   core.ProcessID
	model     string

	ordinal  int
	lastTime time.Time

	log        *ActionLog
	plugins    []Plugin
	delegator  Delegator
	onComplete func()
	callback   ActionCallback

	logger *logging.Logger
	bus    *events.Bus
	now    func() time.Time

	// lineEditsEnabled gates the line-range patching path of EditFile.
	lineEditsEnabled bool
}

// Option configures an agent.
type Option func(*Agent)

// WithLogger installs a logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithBus installs an event bus for action events.
func WithBus(b *events.Bus) Option {
	return func(a *Agent) { a.bus = b }
}

// WithDelegator installs the model delegator.
func WithDelegator(d Delegator) Option {
	return func(a *Agent) { a.delegator = d }
}

// WithSessionID tags emitted events with a session.
func WithSessionID(id string) Option {
	return func(a *Agent) { a.sessionID = id }
}

// WithCompletionCallback installs the callback fired by CompleteProcess.
func WithCompletionCallback(fn func()) Option {
	return func(a *Agent) { a.onComplete = fn }
}

// WithActionCallback installs an observer for recorded actions.
func WithActionCallback(fn ActionCallback) Option {
	return func(a *Agent) { a.callback = fn }
}

// WithLineEdits enables the line-range patching path of EditFile.
func WithLineEdits(enabled bool) Option {
	return func(a *Agent) { a.lineEditsEnabled = enabled }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an agent rooted at a workspace directory.
func New(workspace string, opts ...Option) *Agent {
	a := &Agent{
		workspace: workspace,
		log:       NewActionLog(),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Workspace returns the agent's root directory.
func (a *Agent) Workspace() string {
	return a.workspace
}

// Log returns the audit log.
func (a *Agent) Log() *ActionLog {
	return a.log
}

// RegisterPlugin appends a plugin; registration order is respected at
// dispatch time.
func (a *Agent) RegisterPlugin(p Plugin) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plugins = append(a.plugins, p)
}

// Execute enters the executing state for one process, runs fn, and
// clears the state on return. Actions are refused outside an Execute
// window.
func (a *Agent) Execute(ctx context.Context, phase core.PhaseID, process core.ProcessID, model string, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	if a.executing {
		a.mu.Unlock()
		return core.ErrValidation(core.CodeNotExecuting, "agent is already executing a process")
	}
	a.executing = true
	a.phase = phase
	a.process = process
	a.model = model
	plugins := a.snapshotPluginsLocked()
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.executing = false
		a.phase = 0
		a.process = 0
		a.model = ""
		a.mu.Unlock()
	}()

	for _, p := range plugins {
		if err := p.OnBeforeExecute(ctx, phase, process); err != nil {
			return err
		}
	}
	err := fn(ctx)
	for _, p := range plugins {
		if aerr := p.OnAfterExecute(ctx, phase, process, err); aerr != nil {
			a.logger.Warn("plugin after-execute failed", "plugin", p.Name(), "error", aerr)
		}
	}
	return err
}

// dispatch runs the shared action pipeline: refuse outside Execute,
// stamp identity and metadata, consult plugins, validate, run the
// handler, record, notify.
func (a *Agent) dispatch(ctx context.Context, action *core.Action, handler func(ctx context.Context) error) (*core.Action, error) {
	a.mu.Lock()
	if !a.executing {
		a.mu.Unlock()
		return nil, core.ErrValidation(core.CodeNotExecuting,
			fmt.Sprintf("action %s refused: agent is not executing a process", action.Type))
	}
	a.ordinal++
	action.ID = fmt.Sprintf("A%d", a.ordinal)
	action.Timestamp = a.nextTimestampLocked()
	action.Metadata[core.MetaStartTime] = action.Timestamp.Format(time.RFC3339Nano)
	action.Metadata[core.MetaPhase] = int(a.phase)
	action.Metadata[core.MetaProcess] = int(a.process)
	action.Metadata[core.MetaModel] = a.model
	plugins := a.snapshotPluginsLocked()
	a.mu.Unlock()

	for _, p := range plugins {
		if err := p.OnBeforeAction(ctx, action); err != nil {
			return nil, err
		}
	}

	start := a.now()
	err := a.validate(action)
	if err == nil {
		err = handler(ctx)
	}
	duration := a.now().Sub(start)

	action.Metadata[core.MetaDuration] = duration.Milliseconds()
	if err != nil {
		action.Metadata[core.MetaStatus] = string(core.ActionFailed)
		action.Metadata[core.MetaError] = err.Error()
	} else {
		action.Metadata[core.MetaStatus] = string(core.ActionSuccess)
	}

	a.log.Record(action)
	if a.callback != nil {
		a.callback(action)
	}
	if a.bus != nil {
		a.bus.Publish(events.NewActionRecordedEvent(
			a.sessionID, action.ID, string(action.Type), string(action.Status()), action.Path))
	}

	for _, p := range plugins {
		if aerr := p.OnAfterAction(ctx, action, err); aerr != nil {
			a.logger.Warn("plugin after-action failed", "plugin", p.Name(), "error", aerr)
		}
	}
	return action, err
}

// nextTimestampLocked returns a strictly monotonic timestamp.
func (a *Agent) nextTimestampLocked() time.Time {
	ts := a.now()
	if !ts.After(a.lastTime) {
		ts = a.lastTime.Add(time.Nanosecond)
	}
	a.lastTime = ts
	return ts
}

func (a *Agent) snapshotPluginsLocked() []Plugin {
	out := make([]Plugin, len(a.plugins))
	copy(out, a.plugins)
	return out
}

// validate runs the pre-execution validation pass.
func (a *Agent) validate(action *core.Action) error {
	if action.Type.PathBearing() {
		if err := core.ValidatePath(action.Path); err != nil {
			return err
		}
	}
	if action.Type.TwoPath() {
		if err := core.ValidatePath(action.DestPath); err != nil {
			return err
		}
	}
	return nil
}

// abs resolves a workspace-relative path. Validation has already
// rejected traversal segments.
func (a *Agent) abs(path string) string {
	return joinWorkspace(a.workspace, path)
}

// CompleteProcess records the completion marker action and fires the
// completion callback.
func (a *Agent) CompleteProcess(ctx context.Context) (*core.Action, error) {
	action := core.NewAction("", core.ActionProcessCompleted, a.now())
	return a.dispatch(ctx, action, func(context.Context) error {
		if a.onComplete != nil {
			a.onComplete()
		}
		action.Metadata["completed_at"] = a.now().Format(time.RFC3339Nano)
		return nil
	})
}
