package core

import "time"

// ConsultationKind classifies whether a process pauses for human input.
type ConsultationKind string

const (
	ConsultNone      ConsultationKind = "none"
	ConsultOptional  ConsultationKind = "optional"
	ConsultMandatory ConsultationKind = "mandatory"
)

// Consultation describes the human-in-the-loop behavior of a process.
// The executor honors it; the orchestrator never blocks on I/O itself.
type Consultation struct {
	Kind     ConsultationKind
	Timeout  time.Duration
	Fallback string
}

// ConsultationFor returns the consultation behavior for a phase/process
// pair. Only Plan/Clarify and Implement/Feedback consult the human.
func ConsultationFor(phase PhaseID, proc ProcessID) Consultation {
	switch {
	case phase == PhasePlan && proc == 2:
		return Consultation{Kind: ConsultOptional, Timeout: 60 * time.Second, Fallback: "assume best practice"}
	case phase == PhaseImplement && proc == 3:
		return Consultation{Kind: ConsultMandatory, Timeout: 300 * time.Second, Fallback: "assume approval"}
	default:
		return Consultation{Kind: ConsultNone}
	}
}
