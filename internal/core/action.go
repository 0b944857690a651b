package core

import (
	"fmt"
	"strings"
	"time"
)

// ActionType enumerates the typed operations the agent can perform.
type ActionType string

const (
	ActionCreateFile       ActionType = "create_file"
	ActionDeleteFile       ActionType = "delete_file"
	ActionEditFile         ActionType = "edit_file"
	ActionRenameFile       ActionType = "rename_file"
	ActionMoveFile         ActionType = "move_file"
	ActionCopyFile         ActionType = "copy_file"
	ActionCreateDir        ActionType = "create_dir"
	ActionDeleteDir        ActionType = "delete_dir"
	ActionRenameDir        ActionType = "rename_dir"
	ActionMoveDir          ActionType = "move_dir"
	ActionCopyDir          ActionType = "copy_dir"
	ActionRunCommand       ActionType = "run_command"
	ActionReadFile         ActionType = "read_file"
	ActionSearchFiles      ActionType = "search_files"
	ActionListDirectory    ActionType = "list_directory"
	ActionDelegate         ActionType = "delegate"
	ActionLint             ActionType = "lint"
	ActionFormat           ActionType = "format"
	ActionTest             ActionType = "test"
	ActionProcessCompleted ActionType = "process_completed"
)

// ActionStatus is the terminal status of an executed action.
type ActionStatus string

const (
	ActionSuccess ActionStatus = "success"
	ActionFailed  ActionStatus = "failed"
)

// Metadata keys stamped by the agent dispatcher.
const (
	MetaStartTime = "start_time"
	MetaDuration  = "duration_ms"
	MetaStatus    = "status"
	MetaPhase     = "phase"
	MetaProcess   = "process"
	MetaModel     = "model"
	MetaError     = "error"
)

// Action is one typed agent operation, recorded once and immutable
// thereafter.
type Action struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      ActionType             `json:"type"`
	Path      string                 `json:"path,omitempty"`
	DestPath  string                 `json:"dest_path,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Edits     []Edit                 `json:"edits,omitempty"`
	Diff      *DiffSummary           `json:"diff,omitempty"`
	Command   string                 `json:"command,omitempty"`
	ExitCode  int                    `json:"exit_code,omitempty"`
	Output    string                 `json:"output,omitempty"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// NewAction creates an action of the given type with an allocated
// metadata bag.
func NewAction(id string, typ ActionType, ts time.Time) *Action {
	return &Action{
		ID:        id,
		Timestamp: ts,
		Type:      typ,
		Metadata:  make(map[string]interface{}),
	}
}

// Status returns the recorded terminal status, or empty when the action
// has not finished dispatch.
func (a *Action) Status() ActionStatus {
	s, _ := a.Metadata[MetaStatus].(string)
	return ActionStatus(s)
}

// Succeeded reports whether the action completed without error.
func (a *Action) Succeeded() bool {
	return a.Status() == ActionSuccess
}

// DurationMillis returns the recorded duration in milliseconds.
func (a *Action) DurationMillis() int64 {
	switch v := a.Metadata[MetaDuration].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// MutatesFilesystem reports whether the action type writes to the
// workspace or spawns a process.
func (t ActionType) MutatesFilesystem() bool {
	switch t {
	case ActionCreateFile, ActionDeleteFile, ActionEditFile, ActionRenameFile,
		ActionMoveFile, ActionCopyFile, ActionCreateDir, ActionDeleteDir,
		ActionRenameDir, ActionMoveDir, ActionCopyDir, ActionRunCommand,
		ActionLint, ActionFormat, ActionTest:
		return true
	default:
		return false
	}
}

// PathBearing reports whether the action type carries a primary path.
func (t ActionType) PathBearing() bool {
	switch t {
	case ActionRunCommand, ActionDelegate, ActionProcessCompleted:
		return false
	default:
		return true
	}
}

// TwoPath reports whether the action type carries a destination path.
func (t ActionType) TwoPath() bool {
	switch t {
	case ActionRenameFile, ActionMoveFile, ActionCopyFile,
		ActionRenameDir, ActionMoveDir, ActionCopyDir:
		return true
	default:
		return false
	}
}

// ValidatePath applies the path-safety predicate: non-empty and free of
// ".." segments.
func ValidatePath(path string) error {
	if path == "" {
		return ErrValidation(CodeEmptyPath, "path must not be empty")
	}
	for _, seg := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if seg == ".." {
			return ErrValidation(CodeUnsafePath, fmt.Sprintf("path %q contains a parent-directory segment", path))
		}
	}
	return nil
}
