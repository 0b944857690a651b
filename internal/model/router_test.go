package model

import (
	"testing"

	"github.com/cadenroberts/ollamabot/internal/core"
)

func TestClassifyIntent_Coding(t *testing.T) {
	for _, text := range []string{
		"Implement a cache layer",
		"please fix the login bug",
		"Refactor the session store",
		"debug why the test hangs",
	} {
		if got := ClassifyIntent(TaskInput{Text: text}); got != core.IntentCoding {
			t.Fatalf("ClassifyIntent(%q) = %s, want coding", text, got)
		}
	}
}

func TestClassifyIntent_Research(t *testing.T) {
	for _, text := range []string{
		"What is a B-tree?",
		"explain the scheduler",
		"compare the two approaches",
	} {
		if got := ClassifyIntent(TaskInput{Text: text}); got != core.IntentResearch {
			t.Fatalf("ClassifyIntent(%q) = %s, want research", text, got)
		}
	}
}

func TestClassifyIntent_WritingDefault(t *testing.T) {
	if got := ClassifyIntent(TaskInput{Text: "write release notes for v2"}); got != core.IntentWriting {
		t.Fatalf("default intent = %s, want writing", got)
	}
}

func TestClassifyIntent_VisionOnImages(t *testing.T) {
	input := TaskInput{Text: "fix this layout", Images: []string{"aW1hZ2U="}}
	if got := ClassifyIntent(input); got != core.IntentVision {
		t.Fatalf("image attachment must classify as vision, got %s", got)
	}
}

func TestClassifyIntent_TieBreaksToCoding(t *testing.T) {
	// "analyze" (research) and "code" (coding) both match; coding wins
	// because its table is checked first.
	if got := ClassifyIntent(TaskInput{Text: "analyze this code"}); got != core.IntentCoding {
		t.Fatalf("tie = %s, want coding", got)
	}
}

func TestRoute(t *testing.T) {
	intent, role := Route(TaskInput{Text: "explain the design"})
	if intent != core.IntentResearch || role != core.RoleResearcher {
		t.Fatalf("Route = (%s, %s)", intent, role)
	}
	intent, role = Route(TaskInput{Text: "draft the changelog"})
	if intent != core.IntentWriting || role != core.RoleCoder {
		t.Fatalf("writing routes to coder, got (%s, %s)", intent, role)
	}
}
