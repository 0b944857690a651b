package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/logging"
)

// Adviser asks the orchestrator-role model for a decision and returns
// its raw text response.
type Adviser interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// AdviserFunc adapts a function to the Adviser interface.
type AdviserFunc func(ctx context.Context, prompt string) (string, error)

// Advise implements Adviser.
func (f AdviserFunc) Advise(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// LLMPolicy asks the orchestrator-role model where to go next. Any
// backend failure or unparseable response falls back to the heuristic
// policy, so the traversal always makes progress.
type LLMPolicy struct {
	adviser   Adviser
	heuristic *HeuristicPolicy
	logger    *logging.Logger
}

// NewLLMPolicy creates an LLM-backed policy with heuristic fallback.
func NewLLMPolicy(adviser Adviser, logger *logging.Logger) *LLMPolicy {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLMPolicy{
		adviser:   adviser,
		heuristic: NewHeuristicPolicy(),
		logger:    logger,
	}
}

var (
	phasePattern   = regexp.MustCompile(`(?i)\bphase\s*[:=]?\s*([0-5])\b`)
	processPattern = regexp.MustCompile(`(?i)\bprocess\s*[:=]?\s*([1-3])\b`)
	endPattern     = regexp.MustCompile(`(?i)\bend[\s_-]?phase\b|\bterminate\b`)
)

// SelectPhase implements Policy.
func (p *LLMPolicy) SelectPhase(ctx context.Context, input PolicyInput) (core.PhaseID, error) {
	prompt := buildPhasePrompt(input)
	resp, err := p.adviser.Advise(ctx, prompt)
	if err != nil {
		if core.IsCategory(err, core.ErrCatCancellation) {
			return 0, err
		}
		p.logger.Warn("phase advice failed, using heuristic", "error", err)
		return p.heuristic.SelectPhase(ctx, input)
	}
	phase, perr := parsePhaseChoice(resp)
	if perr != nil {
		p.logger.Warn("phase advice unparseable, using heuristic", "response", truncateForLog(resp))
		return p.heuristic.SelectPhase(ctx, input)
	}
	return phase, nil
}

// SelectProcess implements Policy.
func (p *LLMPolicy) SelectProcess(ctx context.Context, phase core.PhaseID, lastProc core.ProcessID) (core.ProcessID, bool, error) {
	prompt := buildProcessPrompt(phase, lastProc)
	resp, err := p.adviser.Advise(ctx, prompt)
	if err != nil {
		if core.IsCategory(err, core.ErrCatCancellation) {
			return 0, false, err
		}
		p.logger.Warn("process advice failed, using heuristic", "error", err)
		return p.heuristic.SelectProcess(ctx, phase, lastProc)
	}
	proc, end, perr := parseProcessChoice(resp)
	if perr != nil {
		p.logger.Warn("process advice unparseable, using heuristic", "response", truncateForLog(resp))
		return p.heuristic.SelectProcess(ctx, phase, lastProc)
	}
	return proc, end, nil
}

func buildPhasePrompt(input PolicyInput) string {
	var b strings.Builder
	b.WriteString("You orchestrate a five-phase pipeline: 1 Knowledge, 2 Plan, 3 Implement, 4 Scale, 5 Production.\n")
	fmt.Fprintf(&b, "Task: %s\n", input.Task)
	fmt.Fprintf(&b, "Flow so far: %s\n", input.FlowCode)
	if len(input.History) > 0 {
		b.WriteString("Phases visited:")
		for _, ph := range input.History {
			fmt.Fprintf(&b, " %s", ph.Name())
		}
		b.WriteString("\n")
	}
	for _, n := range input.Notes {
		fmt.Fprintf(&b, "Note (%s): %s\n", n.Source, n.Content)
	}
	b.WriteString("Reply with exactly one line: PHASE: <1-5> to enter a phase, or PHASE: 0 to finish.\n")
	return b.String()
}

func buildProcessPrompt(phase core.PhaseID, lastProc core.ProcessID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active phase: %s. Its processes: 1 %s, 2 %s, 3 %s.\n",
		phase.Name(),
		core.ProcessName(phase, 1), core.ProcessName(phase, 2), core.ProcessName(phase, 3))
	if lastProc == 0 {
		b.WriteString("No process has run yet; a phase always starts at process 1.\n")
	} else {
		fmt.Fprintf(&b, "Last terminated process: %d. Allowed next: %v. The phase may end only after process 3.\n",
			lastProc, core.AllowedNavigation(lastProc))
	}
	b.WriteString("Reply with exactly one line: PROCESS: <1-3>, or END PHASE to terminate the phase.\n")
	return b.String()
}

func parsePhaseChoice(resp string) (core.PhaseID, error) {
	m := phasePattern.FindStringSubmatch(resp)
	if m == nil {
		return 0, core.ErrParse("no phase choice in response")
	}
	n, _ := strconv.Atoi(m[1])
	if n == 0 {
		return 0, nil
	}
	return core.PhaseID(n), nil
}

func parseProcessChoice(resp string) (core.ProcessID, bool, error) {
	if endPattern.MatchString(resp) {
		return 0, true, nil
	}
	m := processPattern.FindStringSubmatch(resp)
	if m == nil {
		return 0, false, core.ErrParse("no process choice in response")
	}
	n, _ := strconv.Atoi(m[1])
	return core.ProcessID(n), false, nil
}

func truncateForLog(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
