package events

import "time"

// Event type constants for orchestration events.
const (
	TypeScheduleStarted  = "schedule_started"
	TypeScheduleEnded    = "schedule_ended"
	TypeProcessStarted   = "process_started"
	TypeProcessEnded     = "process_ended"
	TypeErrorMarked      = "error_marked"
	TypePromptTerminated = "prompt_terminated"
	TypeActionRecorded   = "action_recorded"
	TypeDelegationDone   = "delegation_done"
)

// ScheduleStartedEvent is emitted when a phase begins.
type ScheduleStartedEvent struct {
	BaseEvent
	Phase int    `json:"phase"`
	Name  string `json:"name"`
}

// NewScheduleStartedEvent creates a new schedule started event.
func NewScheduleStartedEvent(sessionID string, phase int, name string) ScheduleStartedEvent {
	return ScheduleStartedEvent{
		BaseEvent: NewBaseEvent(TypeScheduleStarted, sessionID),
		Phase:     phase,
		Name:      name,
	}
}

// ScheduleEndedEvent is emitted when a phase terminates.
type ScheduleEndedEvent struct {
	BaseEvent
	Phase    int           `json:"phase"`
	Duration time.Duration `json:"duration"`
}

// NewScheduleEndedEvent creates a new schedule ended event.
func NewScheduleEndedEvent(sessionID string, phase int, duration time.Duration) ScheduleEndedEvent {
	return ScheduleEndedEvent{
		BaseEvent: NewBaseEvent(TypeScheduleEnded, sessionID),
		Phase:     phase,
		Duration:  duration,
	}
}

// ProcessStartedEvent is emitted when a process begins.
type ProcessStartedEvent struct {
	BaseEvent
	Phase   int    `json:"phase"`
	Process int    `json:"process"`
	Name    string `json:"name"`
}

// NewProcessStartedEvent creates a new process started event.
func NewProcessStartedEvent(sessionID string, phase, process int, name string) ProcessStartedEvent {
	return ProcessStartedEvent{
		BaseEvent: NewBaseEvent(TypeProcessStarted, sessionID),
		Phase:     phase,
		Process:   process,
		Name:      name,
	}
}

// ProcessEndedEvent is emitted when a process terminates.
type ProcessEndedEvent struct {
	BaseEvent
	Phase    int           `json:"phase"`
	Process  int           `json:"process"`
	Duration time.Duration `json:"duration"`
}

// NewProcessEndedEvent creates a new process ended event.
func NewProcessEndedEvent(sessionID string, phase, process int, duration time.Duration) ProcessEndedEvent {
	return ProcessEndedEvent{
		BaseEvent: NewBaseEvent(TypeProcessEnded, sessionID),
		Phase:     phase,
		Process:   process,
		Duration:  duration,
	}
}

// ErrorMarkedEvent is emitted when the orchestrator marks an error.
type ErrorMarkedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewErrorMarkedEvent creates a new error marked event.
func NewErrorMarkedEvent(sessionID, errText string) ErrorMarkedEvent {
	return ErrorMarkedEvent{
		BaseEvent: NewBaseEvent(TypeErrorMarked, sessionID),
		Error:     errText,
	}
}

// ActionRecordedEvent is emitted when the agent records an action.
type ActionRecordedEvent struct {
	BaseEvent
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	Status     string `json:"status"`
	Path       string `json:"path,omitempty"`
}

// NewActionRecordedEvent creates a new action recorded event.
func NewActionRecordedEvent(sessionID, actionID, actionType, status, path string) ActionRecordedEvent {
	return ActionRecordedEvent{
		BaseEvent:  NewBaseEvent(TypeActionRecorded, sessionID),
		ActionID:   actionID,
		ActionType: actionType,
		Status:     status,
		Path:       path,
	}
}

// DelegationDoneEvent is emitted after a delegation round trip.
type DelegationDoneEvent struct {
	BaseEvent
	Role   string `json:"role"`
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

// NewDelegationDoneEvent creates a new delegation done event.
func NewDelegationDoneEvent(sessionID, role, model string, tokens int) DelegationDoneEvent {
	return DelegationDoneEvent{
		BaseEvent: NewBaseEvent(TypeDelegationDone, sessionID),
		Role:      role,
		Model:     model,
		Tokens:    tokens,
	}
}
