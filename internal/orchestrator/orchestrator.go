// Package orchestrator drives the five-phase, three-process pipeline.
// It validates every transition against the navigation rule table,
// maintains the append-only flow code, gates termination, and delegates
// all execution to a caller-supplied Executor.
package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/logging"
)

// Hooks receives lifecycle notifications. All callbacks are optional
// and are invoked synchronously with the orchestrator lock released.
type Hooks struct {
	OnScheduleStart func(phase core.PhaseID)
	OnScheduleEnd   func(phase core.PhaseID, duration time.Duration)
	OnProcessStart  func(phase core.PhaseID, proc core.ProcessID)
	OnProcessEnd    func(phase core.PhaseID, proc core.ProcessID, duration time.Duration)
	OnError         func(err error)
}

// SessionWriter persists orchestration snapshots. The orchestrator owns
// the writer, never the session itself.
type SessionWriter interface {
	Persist(snap Snapshot) error
}

// Orchestrator is the 5x3 state machine. State-mutating operations are
// serialized; readers see a consistent snapshot.
type Orchestrator struct {
	mu sync.RWMutex

	task  string
	state core.OrchestratorState
	flow  *core.FlowCode

	schedules []*core.Schedule
	current   *core.Schedule
	// lastProc is the most recently terminated process in the current
	// schedule; 0 right after the schedule starts.
	lastProc    core.ProcessID
	currentProc core.ProcessID

	phaseCounts         map[core.PhaseID]int
	lastTerminatedPhase core.PhaseID

	notes []core.Note

	totalTokens  int64
	totalActions int64
	startedAt    time.Time
	errorCount   int

	hooks  Hooks
	writer SessionWriter
	logger *logging.Logger
	now    func() time.Time
}

// Option configures an orchestrator.
type Option func(*Orchestrator)

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(o *Orchestrator) { o.hooks = h }
}

// WithSessionWriter installs a writer invoked after every process
// termination and at prompt termination.
func WithSessionWriter(w SessionWriter) Option {
	return func(o *Orchestrator) { o.writer = w }
}

// WithLogger installs a logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator in the Begin state.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		state:       core.StateBegin,
		flow:        core.NewFlowCode(),
		phaseCounts: make(map[core.PhaseID]int),
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.startedAt = o.now()
	return o
}

// SetTask configures the initial prompt.
func (o *Orchestrator) SetTask(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.task = text
}

// GetTask returns the configured prompt.
func (o *Orchestrator) GetTask() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.task
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() core.OrchestratorState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// SelectSchedule enters a phase. The prior phase must have been
// terminated; a new phase always starts at P1.
func (o *Orchestrator) SelectSchedule(phase core.PhaseID) error {
	o.mu.Lock()
	if o.state.Terminal() {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeInvalidPhase, "orchestration already terminated")
	}
	if !core.ValidPhase(phase) {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeInvalidPhase,
			fmt.Sprintf("phase id %d outside 1..%d", phase, core.PhaseCount))
	}
	if o.current != nil && !o.current.Terminated() {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeInvalidPhase,
			fmt.Sprintf("phase %s still active; terminate it before entering %s",
				o.current.Phase.Name(), phase.Name()))
	}

	sched := core.NewSchedule(phase, o.now())
	o.schedules = append(o.schedules, sched)
	o.current = sched
	o.lastProc = 0
	o.currentProc = 0
	o.phaseCounts[phase]++
	o.flow.AppendPhase(phase)
	o.state = core.StateActive
	o.logger.Info("schedule started", "phase", phase.Name(), "count", o.phaseCounts[phase])
	o.mu.Unlock()

	if o.hooks.OnScheduleStart != nil {
		o.hooks.OnScheduleStart(phase)
	}
	return nil
}

// SelectProcess enters a process of the active phase. The transition
// from the most recently terminated process must be permitted by the
// navigation rule table.
func (o *Orchestrator) SelectProcess(proc core.ProcessID) error {
	o.mu.Lock()
	if o.current == nil || o.current.Terminated() {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeNoActiveSchedule, "no phase is active")
	}
	if !core.ValidProcess(proc) {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeInvalidProcess,
			fmt.Sprintf("process id %d outside 1..%d", proc, core.ProcessCount))
	}
	if !core.IsValidNavigation(o.lastProc, proc) {
		phase := o.current.Phase
		from := o.lastProc
		o.state = core.StateSuspended
		o.mu.Unlock()
		return core.ErrNavigation(from, proc, phase,
			fmt.Sprintf("from P%d allowed: %s", from, formatTargets(core.AllowedNavigation(from))))
	}

	phase := o.current.Phase
	p := o.current.Process(proc)
	start := o.now()
	p.StartTime = &start
	p.EndTime = nil
	p.Completed = false
	p.Terminated = false
	o.currentProc = proc
	o.flow.AppendProcess(proc)
	o.state = core.StateActive
	o.logger.Info("process started", "phase", phase.Name(), "process", p.Name)
	o.mu.Unlock()

	if o.hooks.OnProcessStart != nil {
		o.hooks.OnProcessStart(phase, proc)
	}
	return nil
}

// CompleteProcess marks the current process complete.
func (o *Orchestrator) CompleteProcess() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.activeProcessLocked()
	if p == nil {
		return core.ErrValidation(core.CodeNoActiveProcess, "no process is active")
	}
	p.Completed = true
	return nil
}

// TerminateProcess ends the current process, stamping its end time and
// recording its duration. The session writer is invoked afterwards.
func (o *Orchestrator) TerminateProcess() error {
	o.mu.Lock()
	p := o.activeProcessLocked()
	if p == nil {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeNoActiveProcess, "no process is active")
	}
	end := o.now()
	p.EndTime = &end
	p.Terminated = true
	phase := o.current.Phase
	proc := o.currentProc
	duration := p.Duration()
	o.lastProc = proc
	o.currentProc = 0
	o.logger.Info("process terminated", "phase", phase.Name(), "process", p.Name, "duration", duration)
	o.mu.Unlock()

	if o.hooks.OnProcessEnd != nil {
		o.hooks.OnProcessEnd(phase, proc, duration)
	}
	o.persist()
	return nil
}

// CanTerminateSchedule reports whether the active phase may end: its
// most recently terminated process must be P3.
func (o *Orchestrator) CanTerminateSchedule() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current != nil && !o.current.Terminated() &&
		o.currentProc == 0 && core.CanTerminatePhaseFrom(o.lastProc)
}

// TerminateSchedule ends the active phase.
func (o *Orchestrator) TerminateSchedule() error {
	o.mu.Lock()
	if o.current == nil || o.current.Terminated() {
		o.mu.Unlock()
		return core.ErrValidation(core.CodeNoActiveSchedule, "no phase is active")
	}
	if o.currentProc != 0 {
		o.mu.Unlock()
		return core.ErrValidation(core.CodePhaseNotTerminable, "a process is still running")
	}
	if !core.CanTerminatePhaseFrom(o.lastProc) {
		from := o.lastProc
		o.mu.Unlock()
		return core.ErrValidation(core.CodePhaseNotTerminable,
			fmt.Sprintf("phase may only terminate from P3, last terminated process was P%d", from))
	}
	end := o.now()
	o.current.EndTime = &end
	phase := o.current.Phase
	duration := end.Sub(o.current.StartTime)
	o.lastTerminatedPhase = phase
	o.state = core.StateSelecting
	o.logger.Info("schedule terminated", "phase", phase.Name(), "duration", duration)
	o.mu.Unlock()

	if o.hooks.OnScheduleEnd != nil {
		o.hooks.OnScheduleEnd(phase, duration)
	}
	return nil
}

// CanTerminatePrompt reports whether the whole traversal may end: every
// phase has been entered at least once and the most recently terminated
// phase is Production.
func (o *Orchestrator) CanTerminatePrompt() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.canTerminatePromptLocked()
}

func (o *Orchestrator) canTerminatePromptLocked() bool {
	for _, phase := range core.AllPhases() {
		if o.phaseCounts[phase] == 0 {
			return false
		}
	}
	return o.lastTerminatedPhase == core.PhaseProduction
}

// TerminatePrompt ends the traversal. Permitted only when
// CanTerminatePrompt holds.
func (o *Orchestrator) TerminatePrompt() error {
	o.mu.Lock()
	if !o.canTerminatePromptLocked() {
		missing := o.missingPhasesLocked()
		last := o.lastTerminatedPhase
		o.mu.Unlock()
		if len(missing) > 0 {
			return core.ErrValidation(core.CodePromptNotTerminable,
				fmt.Sprintf("phases not yet entered: %s", formatPhases(missing)))
		}
		return core.ErrValidation(core.CodePromptNotTerminable,
			fmt.Sprintf("most recently terminated phase is %s, want Production", last.Name()))
	}
	o.state = core.StatePromptTerminated
	o.logger.Info("prompt terminated", "flow", o.flow.String())
	o.mu.Unlock()

	o.persist()
	return nil
}

// MarkError appends an error mark to the flow code and suspends the
// orchestrator. Suspension is recoverable: any subsequent valid
// selection resumes.
func (o *Orchestrator) MarkError(err error) {
	o.mu.Lock()
	o.flow.AppendError()
	o.errorCount++
	if !o.state.Terminal() {
		o.state = core.StateSuspended
	}
	o.logger.Warn("error marked", "error", err)
	o.mu.Unlock()

	if o.hooks.OnError != nil {
		o.hooks.OnError(err)
	}
}

// AddNote attaches a note to the traversal.
func (o *Orchestrator) AddNote(content string, source core.NoteSource) core.Note {
	note := core.NewNote(content, source)
	o.mu.Lock()
	o.notes = append(o.notes, note)
	o.mu.Unlock()
	return note
}

// GetUnreviewedNotes returns notes not yet surfaced to the policy.
func (o *Orchestrator) GetUnreviewedNotes() []core.Note {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []core.Note
	for _, n := range o.notes {
		if !n.Reviewed {
			out = append(out, n)
		}
	}
	return out
}

// MarkNotesReviewed flags every note as reviewed.
func (o *Orchestrator) MarkNotesReviewed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.notes {
		o.notes[i].Reviewed = true
	}
}

// RecordTokens adds to the token total.
func (o *Orchestrator) RecordTokens(n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.totalTokens += n
}

// RecordActions adds to the executed-action total.
func (o *Orchestrator) RecordActions(n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.totalActions += n
}

// GetFlowCode returns the serialized flow code.
func (o *Orchestrator) GetFlowCode() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.flow.String()
}

// CurrentPhase returns the active phase, or 0 when none is active.
func (o *Orchestrator) CurrentPhase() core.PhaseID {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil || o.current.Terminated() {
		return 0
	}
	return o.current.Phase
}

func (o *Orchestrator) activeProcessLocked() *core.Process {
	if o.current == nil || o.current.Terminated() || o.currentProc == 0 {
		return nil
	}
	return o.current.Process(o.currentProc)
}

func (o *Orchestrator) missingPhasesLocked() []core.PhaseID {
	var missing []core.PhaseID
	for _, phase := range core.AllPhases() {
		if o.phaseCounts[phase] == 0 {
			missing = append(missing, phase)
		}
	}
	return missing
}

func (o *Orchestrator) persist() {
	if o.writer == nil {
		return
	}
	if err := o.writer.Persist(o.GetStats()); err != nil {
		o.logger.Warn("session persist failed", "error", err)
	}
}

func formatTargets(targets []core.ProcessID) string {
	s := "{"
	for i, t := range targets {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("P%d", t)
	}
	return s + "}"
}

func formatPhases(phases []core.PhaseID) string {
	s := ""
	for i, p := range phases {
		if i > 0 {
			s += ", "
		}
		s += p.Name()
	}
	return s
}
