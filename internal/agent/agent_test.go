package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// exec runs fn inside an Execute window for the given phase/process.
func execWindow(t *testing.T, a *Agent, fn func(ctx context.Context)) {
	t.Helper()
	err := a.Execute(context.Background(), core.PhaseImplement, 1, "test-model", func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func newTestAgent(t *testing.T, opts ...Option) *Agent {
	t.Helper()
	return New(t.TempDir(), opts...)
}

func TestAgent_RefusesActionsOutsideExecute(t *testing.T) {
	a := newTestAgent(t)
	if _, err := a.CreateFile(context.Background(), "x.txt", "hi"); err == nil {
		t.Fatalf("actions must be refused outside Execute")
	} else if !core.IsCategory(err, core.ErrCatValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAgent_CreateReadDelete(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.CreateFile(ctx, "pkg/util.go", "package util\n")
		if err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if !action.Succeeded() {
			t.Fatalf("create not recorded as success")
		}
		if action.ID != "A1" {
			t.Fatalf("first action id = %q, want A1", action.ID)
		}
		if _, ok := action.Metadata["file_size"]; !ok {
			t.Fatalf("create must attach file metadata")
		}

		read, err := a.ReadFile(ctx, "pkg/util.go")
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if read.Content != "package util\n" {
			t.Fatalf("read content = %q", read.Content)
		}

		if _, err := a.DeleteFile(ctx, "pkg/util.go"); err != nil {
			t.Fatalf("DeleteFile: %v", err)
		}
		// Deleting again is idempotent success.
		del, err := a.DeleteFile(ctx, "pkg/util.go")
		if err != nil {
			t.Fatalf("second DeleteFile: %v", err)
		}
		if !del.Succeeded() {
			t.Fatalf("idempotent delete must succeed")
		}
	})
}

func TestAgent_CreateEmptyFile(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.CreateFile(ctx, "empty.txt", "")
		if err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if !action.Succeeded() {
			t.Fatalf("empty create must be recorded as success")
		}
		info, err := os.Stat(filepath.Join(a.Workspace(), "empty.txt"))
		if err != nil || info.Size() != 0 {
			t.Fatalf("expected empty file on disk, err=%v", err)
		}
	})
}

func TestAgent_PathValidation(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.CreateFile(ctx, "../escape.txt", "x"); err == nil {
			t.Fatalf("traversal path must be rejected")
		}
		if _, err := a.CreateFile(ctx, "", "x"); err == nil {
			t.Fatalf("empty path must be rejected")
		}
		action, err := a.MoveFile(ctx, "a.txt", "../b.txt")
		if err == nil {
			t.Fatalf("traversal destination must be rejected")
		}
		if action.Status() != core.ActionFailed {
			t.Fatalf("rejected action must be recorded as failed")
		}
	})
}

func TestAgent_EditFile(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.EditFile(ctx, "missing.go", "x", nil); err == nil {
			t.Fatalf("editing a missing file must fail")
		}

		if _, err := a.CreateFile(ctx, "main.go", "package main\n\nfunc main() {}\n"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		action, err := a.EditFile(ctx, "main.go", "package main\n\nfunc main() { println(1) }\n", nil)
		if err != nil {
			t.Fatalf("EditFile: %v", err)
		}
		if action.Diff == nil || action.Diff.Additions == 0 {
			t.Fatalf("edit must record a diff summary")
		}
		data, _ := os.ReadFile(filepath.Join(a.Workspace(), "main.go"))
		if !strings.Contains(string(data), "println(1)") {
			t.Fatalf("edit not applied: %s", data)
		}

		// Edit list without the feature flag.
		if _, err := a.EditFile(ctx, "main.go", "", []core.Edit{{StartLine: 1, EndLine: 1, NewContent: "x"}}); err == nil {
			t.Fatalf("line edits must require the feature flag")
		}
	})
}

func TestAgent_EditFileLineRanges(t *testing.T) {
	a := newTestAgent(t, WithLineEdits(true))
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.CreateFile(ctx, "f.txt", "one\ntwo\nthree"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		_, err := a.EditFile(ctx, "f.txt", "", []core.Edit{
			{StartLine: 2, EndLine: 2, OldContent: "two", NewContent: "TWO"},
		})
		if err != nil {
			t.Fatalf("EditFile with edits: %v", err)
		}
		data, _ := os.ReadFile(filepath.Join(a.Workspace(), "f.txt"))
		if string(data) != "one\nTWO\nthree" {
			t.Fatalf("line edit result = %q", data)
		}

		// Out-of-range edit.
		if _, err := a.EditFile(ctx, "f.txt", "", []core.Edit{{StartLine: 9, EndLine: 9}}); err == nil {
			t.Fatalf("out-of-range edit must fail")
		}
	})
}

func TestAgent_RenameMoveCopy(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.CreateFile(ctx, "src.txt", "data"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if _, err := a.RenameFile(ctx, "src.txt", "renamed.txt"); err != nil {
			t.Fatalf("RenameFile: %v", err)
		}
		if _, err := a.MoveFile(ctx, "renamed.txt", "deep/nested/moved.txt"); err != nil {
			t.Fatalf("MoveFile must create parents: %v", err)
		}
		if _, err := a.CopyFile(ctx, "deep/nested/moved.txt", "copy.txt"); err != nil {
			t.Fatalf("CopyFile: %v", err)
		}
		for _, p := range []string{"deep/nested/moved.txt", "copy.txt"} {
			if _, err := os.Stat(filepath.Join(a.Workspace(), p)); err != nil {
				t.Fatalf("missing %s: %v", p, err)
			}
		}
	})
}

func TestAgent_DirOps(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.CreateDir(ctx, "d1/sub"); err != nil {
			t.Fatalf("CreateDir: %v", err)
		}
		if _, err := a.CreateFile(ctx, "d1/sub/f.txt", "x"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if _, err := a.CopyDir(ctx, "d1", "d2"); err != nil {
			t.Fatalf("CopyDir: %v", err)
		}
		if _, err := os.Stat(filepath.Join(a.Workspace(), "d2/sub/f.txt")); err != nil {
			t.Fatalf("copied tree incomplete: %v", err)
		}
		if _, err := a.RenameDir(ctx, "d2", "d3"); err != nil {
			t.Fatalf("RenameDir: %v", err)
		}
		if _, err := a.MoveDir(ctx, "d3", "nested/d4"); err != nil {
			t.Fatalf("MoveDir: %v", err)
		}
		if _, err := a.DeleteDir(ctx, "d1"); err != nil {
			t.Fatalf("DeleteDir: %v", err)
		}
		if _, err := os.Stat(filepath.Join(a.Workspace(), "d1")); !os.IsNotExist(err) {
			t.Fatalf("d1 should be gone")
		}
	})
}

func TestAgent_RunCommand(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.RunCommand(ctx, "echo hello")
		if err != nil {
			t.Fatalf("RunCommand: %v", err)
		}
		if !strings.Contains(action.Output, "hello") {
			t.Fatalf("output = %q", action.Output)
		}
		if action.ExitCode != 0 {
			t.Fatalf("exit code = %d", action.ExitCode)
		}

		fail, err := a.RunCommand(ctx, "exit 3")
		if err == nil {
			t.Fatalf("non-zero exit must be an error")
		}
		if fail.ExitCode != 3 {
			t.Fatalf("exit code = %d, want 3", fail.ExitCode)
		}
		if fail.Status() != core.ActionFailed {
			t.Fatalf("failed command must be recorded as failed")
		}
		if _, ok := fail.Metadata[core.MetaError]; !ok {
			t.Fatalf("failed action must carry error metadata")
		}
	})
}

func TestAgent_ToolCommands(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.Format(ctx, "doc.rs")
		if err == nil {
			t.Fatalf("unsupported language must fail")
		}
		if !core.IsCategory(err, core.ErrCatValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if action.Status() != core.ActionFailed {
			t.Fatalf("unsupported language action must record failure")
		}
	})

	if lang, _ := language("x.go"); lang != "go" {
		t.Fatalf("language(.go) = %q", lang)
	}
	if lang, _ := language("x.tsx"); lang != "typescript" {
		t.Fatalf("language(.tsx) = %q", lang)
	}
	if cmd := toolCommand(core.ActionTest, "go", "x.go"); cmd != "go test ./..." {
		t.Fatalf("go test command = %q", cmd)
	}
	if cmd := toolCommand(core.ActionFormat, "python", "m.py"); !strings.Contains(cmd, "black") {
		t.Fatalf("python format command = %q", cmd)
	}
}

func TestAgent_SearchAndList(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		if _, err := a.CreateFile(ctx, "a/one.txt", "needle here\nplain line\n"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}
		if _, err := a.CreateFile(ctx, "b/two.txt", "nothing\n"); err != nil {
			t.Fatalf("CreateFile: %v", err)
		}

		search, err := a.SearchFiles(ctx, ".", "needle")
		if err != nil {
			t.Fatalf("SearchFiles: %v", err)
		}
		if !strings.Contains(search.Output, "one.txt:1:") || !strings.Contains(search.Output, "needle here") {
			t.Fatalf("search output = %q", search.Output)
		}

		if _, err := a.SearchFiles(ctx, ".", ""); err == nil {
			t.Fatalf("empty query must be rejected")
		}

		list, err := a.ListDirectory(ctx, ".")
		if err != nil {
			t.Fatalf("ListDirectory: %v", err)
		}
		if !strings.Contains(list.Output, "a/") || !strings.Contains(list.Output, "b/") {
			t.Fatalf("list output = %q", list.Output)
		}
		if list.Metadata["entry_count"] != 2 {
			t.Fatalf("entry_count = %v", list.Metadata["entry_count"])
		}
	})
}

func TestAgent_MetadataInvariants(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		_, _ = a.CreateFile(ctx, "x.txt", "1")
		_, _ = a.RunCommand(ctx, "true")
		_, _ = a.CreateFile(ctx, "../bad", "x")
	})

	actions := a.Log().Actions()
	if len(actions) != 3 {
		t.Fatalf("recorded %d actions, want 3", len(actions))
	}
	seen := map[string]bool{}
	var prev *core.Action
	for _, act := range actions {
		if act.ID == "" || seen[act.ID] {
			t.Fatalf("action id %q missing or duplicated", act.ID)
		}
		seen[act.ID] = true
		if prev != nil && !act.Timestamp.After(prev.Timestamp) {
			t.Fatalf("timestamps must be strictly monotonic")
		}
		if act.DurationMillis() < 0 {
			t.Fatalf("duration must be non-negative")
		}
		status := act.Status()
		if status != core.ActionSuccess && status != core.ActionFailed {
			t.Fatalf("status = %q", status)
		}
		if _, ok := act.Metadata[core.MetaStartTime]; !ok {
			t.Fatalf("missing start_time metadata")
		}
		if act.Metadata[core.MetaPhase] != int(core.PhaseImplement) {
			t.Fatalf("missing phase metadata")
		}
		prev = act
	}
}

func TestAgent_CompleteProcess(t *testing.T) {
	fired := false
	a := newTestAgent(t, WithCompletionCallback(func() { fired = true }))
	execWindow(t, a, func(ctx context.Context) {
		action, err := a.CompleteProcess(ctx)
		if err != nil {
			t.Fatalf("CompleteProcess: %v", err)
		}
		if _, ok := action.Metadata["completed_at"]; !ok {
			t.Fatalf("missing completed_at metadata")
		}
	})
	if !fired {
		t.Fatalf("completion callback must fire")
	}
}

func TestAgent_NestedExecuteRefused(t *testing.T) {
	a := newTestAgent(t)
	err := a.Execute(context.Background(), core.PhasePlan, 1, "", func(ctx context.Context) error {
		return a.Execute(ctx, core.PhasePlan, 2, "", func(context.Context) error { return nil })
	})
	if err == nil {
		t.Fatalf("nested Execute must be refused")
	}
}
