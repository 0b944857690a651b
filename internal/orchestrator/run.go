package orchestrator

import (
	"context"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// Run drives the traversal until prompt termination. The policy picks
// phases and processes; the executor does the work of each process.
// Executor errors are marked in the flow code and returned; a later Run
// call resumes from the last terminated process. Cancellation unwinds
// through the current process: its end time is stamped, an error mark
// is recorded, and the cancellation error is returned.
func (o *Orchestrator) Run(ctx context.Context, policy Policy, executor Executor) error {
	if policy == nil {
		policy = NewHeuristicPolicy()
	}
	for {
		if err := ctx.Err(); err != nil {
			return o.failRun(core.ErrCancelled("run cancelled").WithCause(err))
		}
		if o.State().Terminal() {
			return nil
		}

		// Resume an interrupted schedule before selecting a new phase.
		o.mu.Lock()
		if o.current != nil && !o.current.Terminated() {
			phase := o.current.Phase
			last := o.lastProc
			o.mu.Unlock()
			if err := o.resumeSchedule(ctx, phase, last, policy, executor); err != nil {
				return err
			}
			continue
		}
		o.state = core.StateSelecting
		o.mu.Unlock()

		snap := o.GetStats()
		phase, err := policy.SelectPhase(ctx, PolicyInput{
			Task:        snap.Task,
			History:     snap.PhaseHistory,
			PhaseCounts: snap.PhaseCounts,
			Notes:       unreviewed(snap.Notes),
			FlowCode:    snap.FlowCode,
		})
		if err != nil {
			return o.failRun(err)
		}

		if phase == 0 {
			if err := o.TerminatePrompt(); err != nil {
				// Premature termination request: flow code is unchanged,
				// the policy gets a note and may choose again. The
				// heuristic never requests termination prematurely, so
				// its rejection is a hard failure.
				o.AddNote("prompt termination rejected: "+err.Error(), core.NoteSystem)
				if _, isHeuristic := policy.(*HeuristicPolicy); isHeuristic {
					return err
				}
				continue
			}
			return nil
		}

		if err := o.SelectSchedule(phase); err != nil {
			return o.failRun(err)
		}
		if err := o.runSchedule(ctx, phase, policy, executor); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) runSchedule(ctx context.Context, phase core.PhaseID, policy Policy, executor Executor) error {
	return o.resumeSchedule(ctx, phase, 0, policy, executor)
}

func (o *Orchestrator) resumeSchedule(ctx context.Context, phase core.PhaseID, lastProc core.ProcessID, policy Policy, executor Executor) error {
	for {
		if err := ctx.Err(); err != nil {
			return o.failRun(core.ErrCancelled("run cancelled").WithCause(err))
		}

		proc, endPhase, err := policy.SelectProcess(ctx, phase, lastProc)
		if err != nil {
			return o.failRun(err)
		}
		if endPhase {
			if err := o.TerminateSchedule(); err != nil {
				o.MarkError(err)
				return err
			}
			return nil
		}

		if err := o.SelectProcess(proc); err != nil {
			if core.IsCategory(err, core.ErrCatNavigation) {
				// The error mark lands in the flow code and the state
				// stays suspended; the policy gets a note and another
				// chance. The heuristic cannot produce an invalid
				// transition, so for it this is unreachable.
				o.MarkError(err)
				o.AddNote("navigation rejected: "+err.Error(), core.NoteSystem)
				continue
			}
			return o.failRun(err)
		}

		execErr := executor.Execute(ctx, phase, proc)

		if err := o.CompleteProcess(); err != nil {
			return o.failRun(err)
		}
		if err := o.TerminateProcess(); err != nil {
			return o.failRun(err)
		}
		o.MarkNotesReviewed()
		lastProc = proc

		if execErr != nil {
			// The executor wrapper decides what propagates; whatever
			// reaches here ends the run with the failure noted for the
			// next policy call.
			o.AddNote("process failed: "+execErr.Error(), core.NoteSystem)
			return o.failRun(execErr)
		}
	}
}

// failRun marks the failure and returns the error with state flushed.
func (o *Orchestrator) failRun(err error) error {
	o.MarkError(err)
	o.persist()
	return err
}

func unreviewed(notes []core.Note) []core.Note {
	var out []core.Note
	for _, n := range notes {
		if !n.Reviewed {
			out = append(out, n)
		}
	}
	return out
}
