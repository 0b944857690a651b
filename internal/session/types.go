// Package session persists traversals in the Unified Session Format:
// portable, checkpointable JSON records owned by the user.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/cadenroberts/ollamabot/internal/core"
)

// FormatVersion is the USF version this package writes.
const FormatVersion = "1.0"

// Platform identifies the surface that produced a session.
type Platform string

const (
	PlatformCLI Platform = "cli"
	PlatformIDE Platform = "ide"
)

// Task describes what the session is working on.
type Task struct {
	Description   string      `json:"description"`
	Intent        core.Intent `json:"intent,omitempty"`
	QualityPreset string      `json:"quality_preset,omitempty"`
	Status        string      `json:"status,omitempty"`
}

// Workspace describes where the session is working.
type Workspace struct {
	Path      string `json:"path"`
	GitBranch string `json:"git_branch,omitempty"`
	GitStatus string `json:"git_status,omitempty"`
}

// OrchestrationState is the persisted machine position.
type OrchestrationState struct {
	FlowCode           string `json:"flow_code"`
	CurrentSchedule    int    `json:"current_schedule,omitempty"`
	CurrentProcess     int    `json:"current_process,omitempty"`
	CompletedSchedules []int  `json:"completed_schedules"`
}

// Step is one conversation or delegation exchange.
type Step struct {
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Tokens    int64     `json:"tokens,omitempty"`
}

// FileChange records one modified file.
type FileChange struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
	Additions int    `json:"additions,omitempty"`
	Deletions int    `json:"deletions,omitempty"`
}

// Checkpoint is a named, immutable snapshot referencing its session.
type Checkpoint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	FlowCode  string    `json:"flow_code"`
	GitCommit string    `json:"git_commit,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// Stats aggregates traversal usage.
type Stats struct {
	TotalTokens        int64   `json:"total_tokens"`
	TimeElapsedSeconds float64 `json:"time_elapsed_seconds"`
	ToolsExecuted      int64   `json:"tools_executed"`
	EstimatedCostSaved float64 `json:"estimated_cost_saved,omitempty"`
}

// Session is a complete USF record.
type Session struct {
	Version             string             `json:"version"`
	SessionID           string             `json:"session_id"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	SourcePlatform      Platform           `json:"source_platform"`
	Task                Task               `json:"task"`
	Workspace           Workspace          `json:"workspace"`
	OrchestrationState  OrchestrationState `json:"orchestration_state"`
	ConversationHistory []Step             `json:"conversation_history"`
	FilesModified       []FileChange       `json:"files_modified"`
	Checkpoints         []Checkpoint       `json:"checkpoints"`
	Notes               []core.Note        `json:"notes,omitempty"`
	Stats               Stats              `json:"stats"`
}

// NewSession creates a session for a task in a workspace.
func NewSession(description, workspacePath string, platform Platform) *Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &Session{
		Version:        FormatVersion,
		SessionID:      uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
		SourcePlatform: platform,
		Task:           Task{Description: description, Status: "active"},
		Workspace:      Workspace{Path: workspacePath},
		OrchestrationState: OrchestrationState{
			CompletedSchedules: []int{},
		},
		ConversationHistory: []Step{},
		FilesModified:       []FileChange{},
		Checkpoints:         []Checkpoint{},
	}
}

// AppendStep records a step and keeps the token invariant: the stats
// total always equals the sum over steps.
func (s *Session) AppendStep(step Step) {
	s.ConversationHistory = append(s.ConversationHistory, step)
	s.Stats.TotalTokens += step.Tokens
}

// RecomputeTotals re-derives stats.total_tokens from the step history.
func (s *Session) RecomputeTotals() {
	var total int64
	for _, step := range s.ConversationHistory {
		total += step.Tokens
	}
	s.Stats.TotalTokens = total
}
