package agent

import (
	"context"
	"strings"
	"testing"
)

func TestActionLog_IndexesAndRender(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		_, _ = a.CreateFile(ctx, "f.go", "package f\n")
		_, _ = a.EditFile(ctx, "f.go", "package f\n\nvar X = 1\n", nil)
		_, _ = a.RunCommand(ctx, "true")
		_, _ = a.CreateDir(ctx, "sub")
	})

	log := a.Log()
	if log.Len() != 4 {
		t.Fatalf("recorded %d actions, want 4", log.Len())
	}
	if len(log.EditsFor("f.go")) != 2 {
		t.Fatalf("edit history for f.go = %d entries, want 2 (create + edit)", len(log.EditsFor("f.go")))
	}
	paths := log.ModifiedPaths()
	if len(paths) != 1 || paths[0] != "f.go" {
		t.Fatalf("modified paths = %v", paths)
	}

	rendered := log.Render()
	for _, want := range []string{"A1", "create_file", "edit_file", "run_command", "create_dir", "f.go"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendering missing %q:\n%s", want, rendered)
		}
	}
}

func TestActionLog_RenderDiff(t *testing.T) {
	a := newTestAgent(t)
	execWindow(t, a, func(ctx context.Context) {
		_, _ = a.CreateFile(ctx, "m.go", "package m\n\nfunc A() {}\n")
		_, _ = a.EditFile(ctx, "m.go", "package m\n\nfunc A() { panic(1) }\n", nil)
	})

	out, err := a.Log().RenderDiff("m.go")
	if err != nil {
		t.Fatalf("RenderDiff: %v", err)
	}
	if !strings.Contains(out, "a/m.go") || !strings.Contains(out, "b/m.go") {
		t.Fatalf("diff header missing:\n%s", out)
	}
	if !strings.Contains(out, "-func A() {}") || !strings.Contains(out, "+func A() { panic(1) }") {
		t.Fatalf("diff body missing change:\n%s", out)
	}
}

func TestActionLog_RenderDiffNoEdits(t *testing.T) {
	a := newTestAgent(t)
	out, err := a.Log().RenderDiff("never-touched.go")
	if err != nil {
		t.Fatalf("RenderDiff: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty diff, got %q", out)
	}
}

func TestSummarizeChange(t *testing.T) {
	sum := summarizeChange("a\nb\nc", "a\nB\nc")
	if sum.Additions != 1 || sum.Deletions != 1 || sum.Context != 2 {
		t.Fatalf("summary = +%d -%d ctx %d", sum.Additions, sum.Deletions, sum.Context)
	}
	if sum.Lines[0].Content != "b" || sum.Lines[1].Content != "B" {
		t.Fatalf("lines = %+v", sum.Lines)
	}

	ident := summarizeChange("same", "same")
	if ident.Additions != 0 || ident.Deletions != 0 {
		t.Fatalf("identical content must yield no changes")
	}
}
