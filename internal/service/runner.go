package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cadenroberts/ollamabot/internal/agent"
	"github.com/cadenroberts/ollamabot/internal/config"
	"github.com/cadenroberts/ollamabot/internal/contextbuild"
	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/events"
	"github.com/cadenroberts/ollamabot/internal/model"
	"github.com/cadenroberts/ollamabot/internal/orchestrator"
	"github.com/cadenroberts/ollamabot/internal/session"
)

// Consultant answers human-consultation requests. Implementations may
// prompt a user; the default applies the fallback immediately.
type Consultant interface {
	Consult(ctx context.Context, c core.Consultation, question string) (string, error)
}

// AutoConsultant never blocks: optional and mandatory consultations
// both resolve to their configured fallback.
type AutoConsultant struct{}

// Consult implements Consultant.
func (AutoConsultant) Consult(_ context.Context, c core.Consultation, _ string) (string, error) {
	return c.Fallback, nil
}

// Runner drives one task through the full pipeline.
type Runner struct {
	env        *Environment
	workspace  string
	rules      config.Rules
	consultant Consultant
	llmPolicy  bool
}

// RunnerOption configures a runner.
type RunnerOption func(*Runner)

// WithConsultant overrides the consultation behavior.
func WithConsultant(c Consultant) RunnerOption {
	return func(r *Runner) { r.consultant = c }
}

// WithLLMPolicy toggles LLM-backed phase/process selection; off means
// the deterministic heuristic drives the traversal.
func WithLLMPolicy(enabled bool) RunnerOption {
	return func(r *Runner) { r.llmPolicy = enabled }
}

// NewRunner creates a runner for a workspace.
func NewRunner(env *Environment, workspace string, opts ...RunnerOption) (*Runner, error) {
	rules, err := config.LoadRules(workspace)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		env:        env,
		workspace:  workspace,
		rules:      rules,
		consultant: AutoConsultant{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Result summarizes a finished run.
type Result struct {
	SessionID string
	FlowCode  string
	Tokens    int64
	Actions   int64
	Duration  time.Duration
}

// Run executes a task to prompt termination and returns the summary.
// The session is persisted after every process termination, so an
// interrupted run resumes via Resume.
func (r *Runner) Run(ctx context.Context, taskText string) (Result, error) {
	sess := session.NewSession(taskText, r.workspace, session.PlatformCLI)
	intent, _ := model.Route(model.TaskInput{Text: taskText})
	sess.Task.Intent = intent
	if r.rules.QualityPreset != "" {
		sess.Task.QualityPreset = r.rules.QualityPreset
	}

	writer := NewSessionWriter(r.env.Sessions, sess)
	orch := orchestrator.New(
		orchestrator.WithLogger(r.env.Logger.WithSession(sess.SessionID)),
		orchestrator.WithSessionWriter(writer),
		orchestrator.WithHooks(r.hooks(sess.SessionID)),
	)
	orch.SetTask(taskText)
	return r.drive(ctx, orch, writer)
}

// Resume reloads a persisted session and continues its traversal.
func (r *Runner) Resume(ctx context.Context, sessionID string) (Result, error) {
	sess, err := r.env.Sessions.Load(sessionID)
	if err != nil {
		return Result{}, err
	}
	writer := NewSessionWriter(r.env.Sessions, sess)
	orch, err := orchestrator.Restore(orchestrator.RestoreState{
		Task:            sess.Task.Description,
		FlowCode:        sess.OrchestrationState.FlowCode,
		CompletedPhases: intsToPhases(sess.OrchestrationState.CompletedSchedules),
		Notes:           sess.Notes,
		TotalTokens:     sess.Stats.TotalTokens,
		TotalActions:    sess.Stats.ToolsExecuted,
	},
		orchestrator.WithLogger(r.env.Logger.WithSession(sess.SessionID)),
		orchestrator.WithSessionWriter(writer),
		orchestrator.WithHooks(r.hooks(sess.SessionID)),
	)
	if err != nil {
		return Result{}, err
	}
	return r.drive(ctx, orch, writer)
}

func (r *Runner) drive(ctx context.Context, orch *orchestrator.Orchestrator, writer *SessionWriter) (Result, error) {
	sess := writer.Session()
	delegator := NewModelDelegator(r.env.Coordinator, r.env.Backend, r.env.Logger, func(n int64) {
		orch.RecordTokens(n)
	})

	worker := agent.New(r.workspace,
		agent.WithLogger(r.env.Logger.WithSession(sess.SessionID)),
		agent.WithBus(r.env.Bus),
		agent.WithSessionID(sess.SessionID),
		agent.WithDelegator(delegator),
		agent.WithActionCallback(func(action *core.Action) {
			orch.RecordActions(1)
			if action.Type.MutatesFilesystem() && action.Succeeded() && action.Path != "" {
				change := session.FileChange{Path: action.Path, Operation: string(action.Type)}
				if action.Diff != nil {
					change.Additions = action.Diff.Additions
					change.Deletions = action.Diff.Deletions
				}
				writer.RecordFileChange(change)
			}
		}),
	)

	var policy orchestrator.Policy = orchestrator.NewHeuristicPolicy()
	if r.llmPolicy {
		policy = orchestrator.NewLLMPolicy(delegator, r.env.Logger)
	}

	executor := orchestrator.ExecutorFunc(func(ctx context.Context, phase core.PhaseID, proc core.ProcessID) error {
		return r.executeProcess(ctx, orch, writer, worker, phase, proc)
	})

	err := orch.Run(ctx, policy, executor)
	snap := orch.GetStats()
	result := Result{
		SessionID: sess.SessionID,
		FlowCode:  snap.FlowCode,
		Tokens:    snap.TotalTokens,
		Actions:   snap.TotalActions,
		Duration:  snap.Elapsed,
	}
	return result, err
}

// executeProcess is the executor wrapper: it builds the prompt, runs
// the process inside the agent, and records the conversation step.
func (r *Runner) executeProcess(ctx context.Context, orch *orchestrator.Orchestrator, writer *SessionWriter, worker *agent.Agent, phase core.PhaseID, proc core.ProcessID) error {
	modelID, err := r.env.Coordinator.GetForSchedule(phase)
	if err != nil {
		return err
	}
	for _, sched := range r.env.Config.Orchestration.Schedules {
		if core.PhaseID(sched.ID) == phase && sched.Model != "" {
			modelID = sched.Model
		}
	}
	if r.rules.ModelOverride != "" {
		modelID = r.rules.ModelOverride
	}

	prompt := r.buildPrompt(orch.GetTask(), phase, proc)

	return worker.Execute(ctx, phase, proc, modelID, func(ctx context.Context) error {
		// Human consultation, when the phase/process pair asks for it.
		if c := core.ConsultationFor(phase, proc); c.Kind != core.ConsultNone {
			answer, cerr := r.consultant.Consult(ctx, c, prompt)
			if cerr != nil {
				return cerr
			}
			orch.AddNote(fmt.Sprintf("%s/%s consultation: %s",
				phase.Name(), core.ProcessName(phase, proc), answer), core.NoteUser)
		}

		role := core.RoleForPhase(phase)
		action, derr := worker.Delegate(ctx, agent.DelegateRequest{
			Role:         role,
			Task:         prompt,
			SystemPrompt: r.rules.SystemPrompt,
		})
		if derr != nil {
			r.env.Context.RecordError(derr.Error(),
				fmt.Sprintf("%s/%s", phase.Name(), core.ProcessName(phase, proc)))
			return derr
		}

		writer.AppendStep(session.Step{
			Timestamp: time.Now().UTC().Truncate(time.Second),
			Role:      "assistant",
			Content:   action.Output,
			Model:     modelID,
			Tokens:    delegatedTokens(action),
		})
		r.env.Context.AppendHistory("assistant", action.Output)

		if _, cerr := worker.CompleteProcess(ctx); cerr != nil {
			return cerr
		}
		return nil
	})
}

func (r *Runner) buildPrompt(task string, phase core.PhaseID, proc core.ProcessID) string {
	sections := r.env.Context.BuildContext(contextbuild.BuildInput{
		SystemPrompt: r.rules.SystemPrompt,
		ProjectRules: joinConstraints(r.rules.Constraints),
		Task: fmt.Sprintf("Pipeline position: %s / %s.\nTask: %s",
			phase.Name(), core.ProcessName(phase, proc), task),
		Workspace: r.workspace,
	})
	return contextbuild.Render(sections)
}

func (r *Runner) hooks(sessionID string) orchestrator.Hooks {
	bus := r.env.Bus
	return orchestrator.Hooks{
		OnScheduleStart: func(phase core.PhaseID) {
			bus.Publish(events.NewScheduleStartedEvent(sessionID, int(phase), phase.Name()))
		},
		OnScheduleEnd: func(phase core.PhaseID, d time.Duration) {
			bus.Publish(events.NewScheduleEndedEvent(sessionID, int(phase), d))
		},
		OnProcessStart: func(phase core.PhaseID, proc core.ProcessID) {
			bus.Publish(events.NewProcessStartedEvent(sessionID, int(phase), int(proc), core.ProcessName(phase, proc)))
		},
		OnProcessEnd: func(phase core.PhaseID, proc core.ProcessID, d time.Duration) {
			bus.Publish(events.NewProcessEndedEvent(sessionID, int(phase), int(proc), d))
		},
		OnError: func(err error) {
			bus.Publish(events.NewErrorMarkedEvent(sessionID, err.Error()))
		},
	}
}

func delegatedTokens(action *core.Action) int64 {
	switch v := action.Metadata["delegation_tokens"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func joinConstraints(constraints []string) string {
	if len(constraints) == 0 {
		return ""
	}
	out := "Constraints:"
	for _, c := range constraints {
		out += "\n- " + c
	}
	return out
}

func intsToPhases(ids []int) []core.PhaseID {
	out := make([]core.PhaseID, len(ids))
	for i, id := range ids {
		out[i] = core.PhaseID(id)
	}
	return out
}
