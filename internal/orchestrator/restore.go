package orchestrator

import (
	"github.com/cadenroberts/ollamabot/internal/core"
)

// RestoreState carries the persisted orchestration state needed to
// resume a traversal from a reloaded session.
type RestoreState struct {
	Task            string
	FlowCode        string
	CompletedPhases []core.PhaseID
	Notes           []core.Note
	TotalTokens     int64
	TotalActions    int64
}

// Restore rebuilds an orchestrator from persisted state. The flow code
// is replayed to reconstruct schedules and per-phase counts; the
// completed-phase list marks which schedules terminated.
func Restore(st RestoreState, opts ...Option) (*Orchestrator, error) {
	events, err := core.ParseFlowCode(st.FlowCode)
	if err != nil {
		return nil, core.ErrCorruption("", "flow code unparseable").WithCause(err)
	}

	o := New(opts...)
	o.task = st.Task
	o.flow, err = core.ResumeFlowCode(st.FlowCode)
	if err != nil {
		return nil, err
	}
	o.totalTokens = st.TotalTokens
	o.totalActions = st.TotalActions
	o.notes = append(o.notes, st.Notes...)

	// Replay phase and process entries. Processes replayed into a
	// schedule are considered terminated; the traversal only persists
	// after process termination.
	var current *core.Schedule
	var lastProc core.ProcessID
	now := o.now()
	for _, ev := range events {
		switch ev.Kind {
		case core.FlowPhaseEntry:
			current = core.NewSchedule(ev.Phase, now)
			o.schedules = append(o.schedules, current)
			o.phaseCounts[ev.Phase]++
			lastProc = 0
		case core.FlowProcessEntry:
			if current == nil {
				return nil, core.ErrCorruption("", "flow code enters a process before any phase")
			}
			p := current.Process(ev.Process)
			start := now
			p.StartTime = &start
			p.EndTime = &start
			p.Completed = true
			p.Terminated = true
			lastProc = ev.Process
		case core.FlowErrorMark:
			o.errorCount++
		}
	}

	// Mark terminated schedules per the completed-phase list, in order.
	idx := 0
	for _, s := range o.schedules {
		if idx >= len(st.CompletedPhases) {
			break
		}
		if s.Phase == st.CompletedPhases[idx] {
			end := now
			s.EndTime = &end
			o.lastTerminatedPhase = s.Phase
			idx++
		}
	}

	if current != nil && !current.Terminated() {
		o.current = current
		o.lastProc = lastProc
		o.state = core.StateActive
	} else {
		o.current = nil
		o.state = core.StateSelecting
	}
	return o, nil
}
