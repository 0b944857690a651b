package agent

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// RunCommand spawns a shell under the ambient context, capturing
// combined output and exit code. A non-zero exit is a failure.
func (a *Agent) RunCommand(ctx context.Context, command string) (*core.Action, error) {
	action := core.NewAction("", core.ActionRunCommand, a.now())
	action.Command = command
	return a.dispatch(ctx, action, func(ctx context.Context) error {
		return a.runShell(ctx, action, command)
	})
}

func (a *Agent) runShell(ctx context.Context, action *core.Action, command string) error {
	if strings.TrimSpace(command) == "" {
		return core.ErrValidation("EMPTY_COMMAND", "command must not be empty")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = a.workspace
	out, err := cmd.CombinedOutput()
	action.Output = string(out)
	action.ExitCode = -1
	if cmd.ProcessState != nil {
		action.ExitCode = cmd.ProcessState.ExitCode()
	}
	action.Metadata["exit_code"] = action.ExitCode
	if ctx.Err() != nil {
		return core.ErrCancelled("command interrupted").WithCause(ctx.Err())
	}
	if err != nil {
		return core.ErrIO(core.CodeCommandFailed,
			fmt.Sprintf("command exited %d", action.ExitCode)).WithCause(err)
	}
	return nil
}

// language maps a file extension to a toolchain.
func language(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".go":
		return "go", nil
	case ".py":
		return "python", nil
	case ".ts", ".tsx":
		return "typescript", nil
	case ".js", ".jsx":
		return "javascript", nil
	default:
		return "", core.ErrValidation(core.CodeUnsupportedLanguage,
			fmt.Sprintf("no toolchain for %q", filepath.Ext(path)))
	}
}

// toolCommand composes the canonical lint/format/test command for a
// language.
func toolCommand(kind core.ActionType, lang, path string) string {
	switch lang {
	case "go":
		switch kind {
		case core.ActionLint:
			return "go vet ./..."
		case core.ActionFormat:
			return fmt.Sprintf("gofmt -w %s", path)
		default:
			return "go test ./..."
		}
	case "python":
		switch kind {
		case core.ActionLint:
			return fmt.Sprintf("python -m pylint %s", path)
		case core.ActionFormat:
			return fmt.Sprintf("python -m black %s", path)
		default:
			return "python -m pytest"
		}
	case "typescript", "javascript":
		switch kind {
		case core.ActionLint:
			return fmt.Sprintf("npx eslint %s", path)
		case core.ActionFormat:
			return fmt.Sprintf("npx prettier --write %s", path)
		default:
			return "npx jest"
		}
	}
	return ""
}

func (a *Agent) toolAction(ctx context.Context, kind core.ActionType, path string) (*core.Action, error) {
	action := core.NewAction("", kind, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(ctx context.Context) error {
		lang, err := language(path)
		if err != nil {
			return err
		}
		action.Metadata["language"] = lang
		action.Command = toolCommand(kind, lang, path)
		return a.runShell(ctx, action, action.Command)
	})
}

// Lint runs the canonical linter for the file's language.
func (a *Agent) Lint(ctx context.Context, path string) (*core.Action, error) {
	return a.toolAction(ctx, core.ActionLint, path)
}

// Format runs the canonical formatter for the file's language.
func (a *Agent) Format(ctx context.Context, path string) (*core.Action, error) {
	return a.toolAction(ctx, core.ActionFormat, path)
}

// Test runs the canonical test command for the file's language.
func (a *Agent) Test(ctx context.Context, path string) (*core.Action, error) {
	return a.toolAction(ctx, core.ActionTest, path)
}
