package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// ActionLog is the agent's audit trail: every action in order, plus
// per-path edit history and per-category indexes.
type ActionLog struct {
	mu sync.RWMutex

	actions     []*core.Action
	editsByPath map[string][]*core.Action
	commands    []*core.Action
	creations   []*core.Action
	deletions   []*core.Action
	dirOps      []*core.Action
	delegations []*core.Action
}

// NewActionLog creates an empty log.
func NewActionLog() *ActionLog {
	return &ActionLog{
		editsByPath: make(map[string][]*core.Action),
	}
}

// Record appends an action and indexes it. Actions are immutable once
// recorded.
func (l *ActionLog) Record(action *core.Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, action)
	switch action.Type {
	case core.ActionEditFile:
		l.editsByPath[action.Path] = append(l.editsByPath[action.Path], action)
	case core.ActionRunCommand, core.ActionLint, core.ActionFormat, core.ActionTest:
		l.commands = append(l.commands, action)
	case core.ActionCreateFile:
		l.creations = append(l.creations, action)
		l.editsByPath[action.Path] = append(l.editsByPath[action.Path], action)
	case core.ActionDeleteFile:
		l.deletions = append(l.deletions, action)
	case core.ActionCreateDir, core.ActionDeleteDir, core.ActionRenameDir,
		core.ActionMoveDir, core.ActionCopyDir:
		l.dirOps = append(l.dirOps, action)
	case core.ActionDelegate:
		l.delegations = append(l.delegations, action)
	}
}

// Actions returns all recorded actions in order.
func (l *ActionLog) Actions() []*core.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*core.Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Len returns the number of recorded actions.
func (l *ActionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.actions)
}

// EditsFor returns the recorded edits touching a path, in order.
func (l *ActionLog) EditsFor(path string) []*core.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*core.Action, len(l.editsByPath[path]))
	copy(out, l.editsByPath[path])
	return out
}

// ModifiedPaths returns every path with recorded edits or creations.
func (l *ActionLog) ModifiedPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.editsByPath))
	for p := range l.editsByPath {
		out = append(out, p)
	}
	return out
}

// Render produces a human-readable listing of the log.
func (l *ActionLog) Render() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var b strings.Builder
	for _, a := range l.actions {
		fmt.Fprintf(&b, "%s %s %s", a.ID, a.Timestamp.Format("15:04:05.000"), a.Type)
		if a.Path != "" {
			fmt.Fprintf(&b, " %s", a.Path)
		}
		if a.DestPath != "" {
			fmt.Fprintf(&b, " -> %s", a.DestPath)
		}
		if a.Command != "" {
			fmt.Fprintf(&b, " [%s]", a.Command)
		}
		fmt.Fprintf(&b, " (%s, %dms)\n", a.Status(), a.DurationMillis())
	}
	return b.String()
}

// RenderDiff produces a unified-diff rendering of the recorded changes
// to a path, one hunk per edit.
func (l *ActionLog) RenderDiff(path string) (string, error) {
	edits := l.EditsFor(path)
	if len(edits) == 0 {
		return "", nil
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
	}
	for _, a := range edits {
		if a.Diff == nil || len(a.Diff.Lines) == 0 {
			continue
		}
		fd.Hunks = append(fd.Hunks, hunkFromSummary(a.Diff))
	}
	if len(fd.Hunks) == 0 {
		return "", nil
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", core.ErrIO("DIFF_RENDER_FAILED", "printing unified diff").WithCause(err)
	}
	return string(out), nil
}

func hunkFromSummary(sum *core.DiffSummary) *diff.Hunk {
	var body strings.Builder
	origStart, newStart := int32(0), int32(0)
	var origLines, newLines int32
	for _, line := range sum.Lines {
		switch line.Kind {
		case core.DiffDelete:
			if origStart == 0 {
				origStart = int32(line.LineNumber)
			}
			origLines++
			fmt.Fprintf(&body, "-%s\n", line.Content)
		case core.DiffAdd:
			if newStart == 0 {
				newStart = int32(line.LineNumber)
			}
			newLines++
			fmt.Fprintf(&body, "+%s\n", line.Content)
		default:
			origLines++
			newLines++
			fmt.Fprintf(&body, " %s\n", line.Content)
		}
	}
	if origStart == 0 {
		origStart = newStart
	}
	if newStart == 0 {
		newStart = origStart
	}
	return &diff.Hunk{
		OrigStartLine: origStart,
		OrigLines:     origLines,
		NewStartLine:  newStart,
		NewLines:      newLines,
		Body:          []byte(body.String()),
	}
}

// summarizeChange computes a line diff between two file bodies by
// trimming the common prefix and suffix; the interior is reported as
// deletions plus additions.
func summarizeChange(oldContent, newContent string) *core.DiffSummary {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	sum := &core.DiffSummary{Context: prefix + suffix}
	for i := prefix; i < len(oldLines)-suffix; i++ {
		sum.Deletions++
		sum.Lines = append(sum.Lines, core.DiffLine{LineNumber: i + 1, Content: oldLines[i], Kind: core.DiffDelete})
	}
	for i := prefix; i < len(newLines)-suffix; i++ {
		sum.Additions++
		sum.Lines = append(sum.Lines, core.DiffLine{LineNumber: i + 1, Content: newLines[i], Kind: core.DiffAdd})
	}
	return sum
}
