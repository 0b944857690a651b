package model

import (
	"strings"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// Keyword tables for intent classification. Order matters: ties break
// to the earlier table.
var (
	codingKeywords   = []string{"implement", "fix", "refactor", "optimize", "debug", "code", "function"}
	researchKeywords = []string{"what is", "explain", "compare", "analyze", "research", "understand"}
)

// TaskInput is the routable description of a task.
type TaskInput struct {
	Text   string
	Images []string // base64 attachments
}

// ClassifyIntent classifies a task into an intent. Image attachments
// route to vision; otherwise keywords decide, with writing as the
// default for documentation-style tasks.
func ClassifyIntent(input TaskInput) core.Intent {
	if len(input.Images) > 0 {
		return core.IntentVision
	}
	text := strings.ToLower(input.Text)
	for _, kw := range codingKeywords {
		if strings.Contains(text, kw) {
			return core.IntentCoding
		}
	}
	for _, kw := range researchKeywords {
		if strings.Contains(text, kw) {
			return core.IntentResearch
		}
	}
	return core.IntentWriting
}

// Route classifies a task and resolves the serving role.
func Route(input TaskInput) (core.Intent, core.ModelRole) {
	intent := ClassifyIntent(input)
	return intent, core.RoleForIntent(intent)
}
