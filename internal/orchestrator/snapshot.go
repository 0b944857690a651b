package orchestrator

import (
	"time"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// Snapshot is an immutable view of orchestration progress. External
// surfaces consume snapshots; they never reach into mutable state.
type Snapshot struct {
	Task                string
	State               core.OrchestratorState
	FlowCode            string
	CurrentPhase        core.PhaseID
	CurrentProcess      core.ProcessID
	LastTerminatedPhase core.PhaseID
	PhaseCounts         map[core.PhaseID]int
	PhaseHistory        []core.PhaseID
	CompletedPhases     []core.PhaseID
	Notes               []core.Note
	TotalTokens         int64
	TotalActions        int64
	ErrorCount          int
	StartedAt           time.Time
	Elapsed             time.Duration
}

// GetStats returns a point-in-time snapshot.
func (o *Orchestrator) GetStats() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	counts := make(map[core.PhaseID]int, len(o.phaseCounts))
	for k, v := range o.phaseCounts {
		counts[k] = v
	}
	history := make([]core.PhaseID, 0, len(o.schedules))
	var completed []core.PhaseID
	for _, s := range o.schedules {
		history = append(history, s.Phase)
		if s.Terminated() {
			completed = append(completed, s.Phase)
		}
	}
	notes := make([]core.Note, len(o.notes))
	copy(notes, o.notes)

	return Snapshot{
		Task:                o.task,
		State:               o.state,
		FlowCode:            o.flow.String(),
		CurrentPhase:        currentPhaseOf(o),
		CurrentProcess:      o.currentProc,
		LastTerminatedPhase: o.lastTerminatedPhase,
		PhaseCounts:         counts,
		PhaseHistory:        history,
		CompletedPhases:     completed,
		Notes:               notes,
		TotalTokens:         o.totalTokens,
		TotalActions:        o.totalActions,
		ErrorCount:          o.errorCount,
		StartedAt:           o.startedAt,
		Elapsed:             o.now().Sub(o.startedAt),
	}
}

func currentPhaseOf(o *Orchestrator) core.PhaseID {
	if o.current == nil || o.current.Terminated() {
		return 0
	}
	return o.current.Phase
}
