package core

import (
	"fmt"
	"time"
)

// PhaseID identifies one of the five pipeline phases. IDs are stable
// integers used in serialization and flow codes.
type PhaseID int

const (
	PhaseKnowledge  PhaseID = 1
	PhasePlan       PhaseID = 2
	PhaseImplement  PhaseID = 3
	PhaseScale      PhaseID = 4
	PhaseProduction PhaseID = 5
)

// PhaseCount is the number of phases in the pipeline.
const PhaseCount = 5

// AllPhases returns all phases in pipeline order.
func AllPhases() []PhaseID {
	return []PhaseID{PhaseKnowledge, PhasePlan, PhaseImplement, PhaseScale, PhaseProduction}
}

// ValidPhase checks whether an ID names a real phase.
func ValidPhase(id PhaseID) bool {
	return id >= PhaseKnowledge && id <= PhaseProduction
}

// ParsePhase converts an integer to a PhaseID with validation.
func ParsePhase(n int) (PhaseID, error) {
	id := PhaseID(n)
	if !ValidPhase(id) {
		return 0, ErrValidation("INVALID_PHASE", fmt.Sprintf("phase id %d outside 1..%d", n, PhaseCount))
	}
	return id, nil
}

// Name returns the canonical phase name.
func (id PhaseID) Name() string {
	switch id {
	case PhaseKnowledge:
		return "Knowledge"
	case PhasePlan:
		return "Plan"
	case PhaseImplement:
		return "Implement"
	case PhaseScale:
		return "Scale"
	case PhaseProduction:
		return "Production"
	default:
		return "Unknown"
	}
}

func (id PhaseID) String() string {
	return fmt.Sprintf("%s(%d)", id.Name(), int(id))
}

// ProcessID identifies one of the three ordered processes inside a phase.
type ProcessID int

// ProcessCount is the number of processes per phase.
const ProcessCount = 3

// ValidProcess checks whether an ID names a real process slot.
func ValidProcess(id ProcessID) bool {
	return id >= 1 && id <= ProcessCount
}

// processNames holds the fixed process names per phase.
var processNames = map[PhaseID][ProcessCount]string{
	PhaseKnowledge:  {"Research", "Crawl", "Retrieve"},
	PhasePlan:       {"Brainstorm", "Clarify", "Plan"},
	PhaseImplement:  {"Implement", "Verify", "Feedback"},
	PhaseScale:      {"Scale", "Benchmark", "Optimize"},
	PhaseProduction: {"Analyze", "Systemize", "Harmonize"},
}

// ProcessName returns the fixed name of a process within a phase.
func ProcessName(phase PhaseID, proc ProcessID) string {
	names, ok := processNames[phase]
	if !ok || !ValidProcess(proc) {
		return "Unknown"
	}
	return names[proc-1]
}

// Process is one step of a phase. Created when the phase is scheduled;
// timestamps and flags are stamped as the orchestrator drives it.
type Process struct {
	ID           ProcessID        `json:"id"`
	Name         string           `json:"name"`
	Phase        PhaseID          `json:"phase"`
	Consultation ConsultationKind `json:"consultation"`
	StartTime    *time.Time       `json:"start_time,omitempty"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	Completed    bool             `json:"completed"`
	Terminated   bool             `json:"terminated"`
}

// NewProcess creates a process slot for a phase with its consultation
// kind precomputed.
func NewProcess(phase PhaseID, id ProcessID) *Process {
	return &Process{
		ID:           id,
		Name:         ProcessName(phase, id),
		Phase:        phase,
		Consultation: ConsultationFor(phase, id).Kind,
	}
}

// Duration returns the elapsed time between start and end, or zero when
// either timestamp is missing.
func (p *Process) Duration() time.Duration {
	if p.StartTime == nil || p.EndTime == nil {
		return 0
	}
	return p.EndTime.Sub(*p.StartTime)
}

// Schedule is one activation of a phase: the phase plus its three
// process slots and activation timestamps.
type Schedule struct {
	Phase     PhaseID                `json:"phase"`
	Processes [ProcessCount]*Process `json:"processes"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
}

// NewSchedule allocates a schedule for a phase with all process slots
// initialized.
func NewSchedule(phase PhaseID, start time.Time) *Schedule {
	s := &Schedule{Phase: phase, StartTime: start}
	for i := 1; i <= ProcessCount; i++ {
		s.Processes[i-1] = NewProcess(phase, ProcessID(i))
	}
	return s
}

// Process returns the process slot for an ID, or nil when out of range.
func (s *Schedule) Process(id ProcessID) *Process {
	if !ValidProcess(id) {
		return nil
	}
	return s.Processes[id-1]
}

// Terminated reports whether the schedule has ended.
func (s *Schedule) Terminated() bool {
	return s.EndTime != nil
}
