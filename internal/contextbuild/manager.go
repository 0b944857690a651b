package contextbuild

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cadenroberts/ollamabot/internal/logging"
)

// FileContent is one selected file for the file-content section.
type FileContent struct {
	Path    string
	Content string
}

// BuildInput carries everything the manager assembles a prompt from.
type BuildInput struct {
	SystemPrompt  string
	ProjectRules  string
	Task          string
	Workspace     string
	CurrentFile   string
	SelectedFiles []FileContent
	History       []Turn
	Memory        []string
}

// Manager builds prompts under a global token budget.
type Manager struct {
	mu sync.Mutex

	budget    int
	tokenizer Tokenizer
	errors    *ErrorStore
	cache     *ProjectCache
	history   []Turn
	logger    *logging.Logger
}

// Option configures a manager.
type Option func(*Manager)

// WithTokenizer overrides the default estimating tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(m *Manager) { m.tokenizer = t }
}

// WithLogger installs a logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithErrorCapacity bounds the error-pattern store.
func WithErrorCapacity(n int) Option {
	return func(m *Manager) { m.errors = NewErrorStore(n) }
}

// NewManager creates a manager with a global token budget.
func NewManager(budget int, opts ...Option) *Manager {
	if budget <= 0 {
		budget = 8192
	}
	m := &Manager{
		budget:    budget,
		tokenizer: EstimateTokenizer{},
		errors:    NewErrorStore(32),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Budget returns the global token budget.
func (m *Manager) Budget() int {
	return m.budget
}

// RecordError adds an entry to the error-pattern store.
func (m *Manager) RecordError(text, context string) {
	m.errors.Record(text, context)
}

// UpdateProjectCache replaces the directory snapshot used for the
// project-structure section.
func (m *Manager) UpdateProjectCache(root string, files []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		m.cache = NewProjectCache(root, m.logger)
	}
	m.cache.Update(root, files)
}

// AppendHistory records a conversation turn.
func (m *Manager) AppendHistory(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, Turn{Role: role, Content: content})
}

// History returns the recorded conversation turns.
func (m *Manager) History() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.history))
	copy(out, m.history)
	return out
}

// PruneHistory drops turns so the history section fits its allotment.
func (m *Manager) PruneHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = truncateHistory(m.history, Allotment(SectionHistory, m.budget), m.tokenizer)
}

// BuildContext assembles the ordered section list. Every class stays
// within its allotment and the total stays within the global budget.
func (m *Manager) BuildContext(input BuildInput) []ContextSection {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := input.History
	if history == nil {
		history = m.history
	}

	parts := map[SectionKind]string{
		SectionSystemPrompt: input.SystemPrompt,
		SectionProjectRules: input.ProjectRules,
		SectionTask:         input.Task,
		SectionFileContent:  m.buildFiles(input.SelectedFiles),
		SectionStructure:    m.buildStructure(input.CurrentFile),
		SectionHistory:      renderHistory(truncateHistory(history, Allotment(SectionHistory, m.budget), m.tokenizer)),
		SectionMemory:       strings.Join(input.Memory, "\n"),
		SectionErrors:       m.buildErrors(),
	}

	var sections []ContextSection
	for _, kind := range sectionOrder {
		content := parts[kind]
		if content == "" {
			continue
		}
		limit := Allotment(kind, m.budget)
		content = m.fitToLimit(kind, content, limit)
		count := m.tokenizer.Count(content)
		if count > limit {
			// fitToLimit guarantees the class allotment; anything left
			// over is clipped outright.
			content = hardClip(content, limit, m.tokenizer)
			count = m.tokenizer.Count(content)
		}
		if content == "" {
			continue
		}
		sections = append(sections, ContextSection{Kind: kind, Content: content, TokenCount: count})
	}
	return sections
}

// fitToLimit applies the class-appropriate semantic truncation.
func (m *Manager) fitToLimit(kind SectionKind, content string, limit int) string {
	if m.tokenizer.Count(content) <= limit {
		return content
	}
	switch kind {
	case SectionFileContent:
		return truncateSource(content, limit, m.tokenizer)
	case SectionStructure:
		lines := strings.Split(content, "\n")
		return strings.Join(truncateTree(lines, "", limit, m.tokenizer), "\n")
	default:
		return hardClip(content, limit, m.tokenizer)
	}
}

func (m *Manager) buildFiles(files []FileContent) string {
	if len(files) == 0 {
		return ""
	}
	perFile := Allotment(SectionFileContent, m.budget) / len(files)
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- %s ---\n", f.Path)
		b.WriteString(truncateSource(f.Content, perFile, m.tokenizer))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Manager) buildStructure(currentFile string) string {
	if m.cache == nil {
		return ""
	}
	lines := truncateTree(m.cache.Tree(), currentFile, Allotment(SectionStructure, m.budget), m.tokenizer)
	return strings.Join(lines, "\n")
}

func (m *Manager) buildErrors() string {
	patterns := m.errors.Recent(8)
	if len(patterns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent failures to avoid repeating:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- %s", p.Text)
		if p.Context != "" {
			fmt.Fprintf(&b, " (%s)", p.Context)
		}
		if p.Count > 1 {
			fmt.Fprintf(&b, " [seen %dx]", p.Count)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// hardClip truncates text to a token limit at a line boundary.
func hardClip(text string, limit int, tok Tokenizer) string {
	if tok.Count(text) <= limit {
		return text
	}
	lines := strings.Split(text, "\n")
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		if tok.Count(strings.Join(lines, "\n")) <= limit {
			return strings.Join(lines, "\n")
		}
	}
	// Single long line: clip by runes.
	runes := []rune(text)
	for len(runes) > 0 && tok.Count(string(runes)) > limit {
		cut := len(runes) / 2
		if cut == 0 {
			cut = 1
		}
		runes = runes[:len(runes)-cut]
	}
	return string(runes)
}

// Render joins sections into the final prompt text.
func Render(sections []ContextSection) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Content)
	}
	return b.String()
}

// TotalTokens sums the section token counts.
func TotalTokens(sections []ContextSection) int {
	total := 0
	for _, s := range sections {
		total += s.TokenCount
	}
	return total
}
