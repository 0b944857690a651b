package orchestrator

import (
	"context"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// PolicyInput is the evidence a policy sees when picking the next phase.
type PolicyInput struct {
	Task        string
	History     []core.PhaseID
	PhaseCounts map[core.PhaseID]int
	Notes       []core.Note
	FlowCode    string
}

// Policy decides where the traversal goes next. SelectPhase returning 0
// requests prompt termination; SelectProcess returning endPhase=true
// requests phase termination.
type Policy interface {
	SelectPhase(ctx context.Context, input PolicyInput) (core.PhaseID, error)
	SelectProcess(ctx context.Context, phase core.PhaseID, lastProc core.ProcessID) (proc core.ProcessID, endPhase bool, err error)
}

// Executor performs the work of one process. Typically this is the
// agent wrapper; the orchestrator itself never touches the filesystem.
type Executor interface {
	Execute(ctx context.Context, phase core.PhaseID, proc core.ProcessID) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, phase core.PhaseID, proc core.ProcessID) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, phase core.PhaseID, proc core.ProcessID) error {
	return f(ctx, phase, proc)
}

// HeuristicPolicy is the deterministic fallback: visit phases in order,
// run processes strictly 1 -> 2 -> 3, then end the phase. It guarantees
// termination in finite steps.
type HeuristicPolicy struct{}

// NewHeuristicPolicy creates the deterministic policy.
func NewHeuristicPolicy() *HeuristicPolicy {
	return &HeuristicPolicy{}
}

// SelectPhase picks the lowest-indexed phase that has not run; once all
// have run it picks Production, and after Production has terminated the
// traversal it requests prompt termination.
func (p *HeuristicPolicy) SelectPhase(_ context.Context, input PolicyInput) (core.PhaseID, error) {
	for _, phase := range core.AllPhases() {
		if input.PhaseCounts[phase] == 0 {
			return phase, nil
		}
	}
	// All phases have run. If the last entry was Production, the prompt
	// is terminable; request it.
	if n := len(input.History); n > 0 && input.History[n-1] == core.PhaseProduction {
		return 0, nil
	}
	return core.PhaseProduction, nil
}

// SelectProcess advances strictly through P1, P2, P3 and then requests
// phase termination.
func (p *HeuristicPolicy) SelectProcess(_ context.Context, _ core.PhaseID, lastProc core.ProcessID) (core.ProcessID, bool, error) {
	if lastProc >= 3 {
		return 0, true, nil
	}
	return lastProc + 1, false, nil
}
