package contextbuild

import (
	"strings"
	"testing"
)

func TestShares_SumToOne(t *testing.T) {
	total := 0.0
	for _, kind := range sectionOrder {
		total += Share(kind)
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("shares sum to %f, want 1.00", total)
	}
}

func TestAllotment(t *testing.T) {
	if got := Allotment(SectionFileContent, 1000); got != 420 {
		t.Fatalf("file allotment = %d, want 420", got)
	}
	if got := Allotment(SectionErrors, 1000); got != 40 {
		t.Fatalf("errors allotment = %d, want 40", got)
	}
}

func TestBuildContext_WithinBudget(t *testing.T) {
	m := NewManager(400)
	big := strings.Repeat("some code line here\n", 500)
	sections := m.BuildContext(BuildInput{
		SystemPrompt:  strings.Repeat("system ", 100),
		Task:          strings.Repeat("task ", 200),
		SelectedFiles: []FileContent{{Path: "a.go", Content: big}},
		History: []Turn{
			{Role: "user", Content: strings.Repeat("question ", 100)},
			{Role: "assistant", Content: strings.Repeat("answer ", 100)},
		},
	})

	if TotalTokens(sections) > m.Budget() {
		t.Fatalf("total %d exceeds budget %d", TotalTokens(sections), m.Budget())
	}
	for _, s := range sections {
		if s.TokenCount > Allotment(s.Kind, m.Budget()) {
			t.Fatalf("section %s exceeds its allotment: %d > %d",
				s.Kind, s.TokenCount, Allotment(s.Kind, m.Budget()))
		}
	}
}

func TestBuildContext_OrderAndOmission(t *testing.T) {
	m := NewManager(4096)
	sections := m.BuildContext(BuildInput{
		SystemPrompt: "be helpful",
		Task:         "fix the bug",
	})
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2 (empty classes omitted)", len(sections))
	}
	if sections[0].Kind != SectionSystemPrompt || sections[1].Kind != SectionTask {
		t.Fatalf("order = %s, %s", sections[0].Kind, sections[1].Kind)
	}
}

func TestBuildContext_FileHeaders(t *testing.T) {
	m := NewManager(4096)
	sections := m.BuildContext(BuildInput{
		Task: "review",
		SelectedFiles: []FileContent{
			{Path: "x.go", Content: "package x\n"},
			{Path: "y.go", Content: "package y\n"},
		},
	})
	var fileSection *ContextSection
	for i := range sections {
		if sections[i].Kind == SectionFileContent {
			fileSection = &sections[i]
		}
	}
	if fileSection == nil {
		t.Fatalf("missing file section")
	}
	if !strings.Contains(fileSection.Content, "--- x.go ---") ||
		!strings.Contains(fileSection.Content, "--- y.go ---") {
		t.Fatalf("file headers missing:\n%s", fileSection.Content)
	}
}

func TestTruncateSource_PreservesDeclarations(t *testing.T) {
	tok := EstimateTokenizer{}
	src := `package main

import "fmt"

func Greet(name string) string {
	result := "Hello, " + name
	result += "!"
	return result
}

func main() {
	fmt.Println(Greet("world"))
}`
	out := truncateSource(src, 30, tok)
	if !strings.Contains(out, "package main") {
		t.Fatalf("package line lost:\n%s", out)
	}
	if !strings.Contains(out, "func Greet(name string) string {") {
		t.Fatalf("function signature lost:\n%s", out)
	}
	if strings.Contains(out, `result := "Hello, "`) {
		t.Fatalf("body should be elided:\n%s", out)
	}
	if !strings.Contains(out, elisionMarker) {
		t.Fatalf("elision marker missing:\n%s", out)
	}
}

func TestTruncateSource_NoopWhenFits(t *testing.T) {
	src := "package tiny\n"
	if out := truncateSource(src, 100, EstimateTokenizer{}); out != src {
		t.Fatalf("small file must pass through unchanged")
	}
}

func TestTruncateHistory_ProtectsFinalTurns(t *testing.T) {
	tok := EstimateTokenizer{}
	turns := []Turn{
		{Role: "user", Content: strings.Repeat("old question ", 50)},
		{Role: "assistant", Content: strings.Repeat("old answer ", 50)},
		{Role: "user", Content: "middle question"},
		{Role: "assistant", Content: "final answer"},
		{Role: "user", Content: "current question"},
	}
	out := truncateHistory(turns, 20, tok)

	hasCurrent, hasFinalAssistant := false, false
	for _, tn := range out {
		if tn.Content == "current question" {
			hasCurrent = true
		}
		if tn.Content == "final answer" {
			hasFinalAssistant = true
		}
	}
	if !hasCurrent {
		t.Fatalf("current user turn must never be dropped")
	}
	if !hasFinalAssistant {
		t.Fatalf("last assistant turn must never be dropped")
	}
	if len(out) == len(turns) {
		t.Fatalf("truncation must drop something")
	}
}

func TestPruneHistory(t *testing.T) {
	m := NewManager(100)
	for i := 0; i < 50; i++ {
		m.AppendHistory("user", strings.Repeat("blah ", 20))
		m.AppendHistory("assistant", strings.Repeat("reply ", 20))
	}
	before := len(m.History())
	m.PruneHistory()
	after := m.History()
	if len(after) >= before {
		t.Fatalf("pruning must drop turns: %d -> %d", before, len(after))
	}
	// The final user and assistant turns survive even when the
	// allotment cannot hold them.
	roles := map[string]bool{}
	for _, turn := range after {
		roles[turn.Role] = true
	}
	if !roles["user"] || !roles["assistant"] {
		t.Fatalf("protected turns dropped: %+v", after)
	}
}

func TestErrorStore_LRU(t *testing.T) {
	s := NewErrorStore(2)
	s.Record("e1", "ctx")
	s.Record("e2", "ctx")
	s.Record("e3", "ctx")
	if s.Len() != 2 {
		t.Fatalf("store len = %d, want 2", s.Len())
	}
	recent := s.Recent(10)
	if recent[0].Text != "e3" || recent[1].Text != "e2" {
		t.Fatalf("recent = %+v", recent)
	}

	// Re-recording refreshes recency and count.
	s.Record("e2", "again")
	recent = s.Recent(10)
	if recent[0].Text != "e2" || recent[0].Count != 2 {
		t.Fatalf("refresh failed: %+v", recent[0])
	}
}

func TestBuildContext_ErrorSection(t *testing.T) {
	m := NewManager(4096)
	m.RecordError("go test failed", "Implement/Verify")
	sections := m.BuildContext(BuildInput{Task: "t"})
	found := false
	for _, s := range sections {
		if s.Kind == SectionErrors && strings.Contains(s.Content, "go test failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("error section missing")
	}
}

func TestProjectCache_UpdateAndStructureSection(t *testing.T) {
	m := NewManager(4096)
	m.UpdateProjectCache("/proj", []string{"cmd/", "cmd/main.go", "pkg/", "pkg/util.go"})
	sections := m.BuildContext(BuildInput{Task: "t", CurrentFile: "pkg/util.go"})
	var structure string
	for _, s := range sections {
		if s.Kind == SectionStructure {
			structure = s.Content
		}
	}
	if !strings.Contains(structure, "cmd/") || !strings.Contains(structure, "util.go") {
		t.Fatalf("structure = %q", structure)
	}
}

func TestTokenizer_Deterministic(t *testing.T) {
	tok := EstimateTokenizer{}
	if tok.Count("") != 0 {
		t.Fatalf("empty string counts zero")
	}
	a := tok.Count("the same input text")
	b := tok.Count("the same input text")
	if a != b || a == 0 {
		t.Fatalf("tokenizer must be deterministic and positive: %d vs %d", a, b)
	}
}
