// Package contextbuild assembles token-budgeted prompts from typed
// sections. The budget is partitioned across eight section classes with
// fixed proportions; overflow within a class triggers semantic
// truncation for that class.
package contextbuild

// SectionKind is one of the eight budget classes.
type SectionKind string

const (
	SectionSystemPrompt SectionKind = "system_prompt"
	SectionProjectRules SectionKind = "project_rules"
	SectionTask         SectionKind = "task"
	SectionFileContent  SectionKind = "file_content"
	SectionStructure    SectionKind = "project_structure"
	SectionHistory      SectionKind = "conversation_history"
	SectionMemory       SectionKind = "memory_patterns"
	SectionErrors       SectionKind = "error_warnings"
)

// budgetShares are the fixed proportions of the global token budget.
// They sum to 1.00.
var budgetShares = map[SectionKind]float64{
	SectionSystemPrompt: 0.07,
	SectionProjectRules: 0.04,
	SectionTask:         0.14,
	SectionFileContent:  0.42,
	SectionStructure:    0.10,
	SectionHistory:      0.14,
	SectionMemory:       0.05,
	SectionErrors:       0.04,
}

// sectionOrder is the assembly order of the prompt.
var sectionOrder = []SectionKind{
	SectionSystemPrompt,
	SectionProjectRules,
	SectionTask,
	SectionFileContent,
	SectionStructure,
	SectionHistory,
	SectionMemory,
	SectionErrors,
}

// Share returns the budget proportion of a section class.
func Share(kind SectionKind) float64 {
	return budgetShares[kind]
}

// Allotment returns the integer token allotment of a class under a
// global budget.
func Allotment(kind SectionKind, budget int) int {
	return int(float64(budget) * budgetShares[kind])
}

// ContextSection is one assembled prompt section.
type ContextSection struct {
	Kind       SectionKind `json:"kind"`
	Content    string      `json:"content"`
	TokenCount int         `json:"token_count"`
}
