package core

import (
	"time"

	"github.com/google/uuid"
)

// NoteSource identifies who authored a session note.
type NoteSource string

const (
	NoteUser         NoteSource = "user"
	NoteAISubstitute NoteSource = "ai-substitute"
	NotePlanner      NoteSource = "planner"
	NoteSystem       NoteSource = "system"
)

// Note is a piece of guidance attached to the traversal. Unreviewed
// notes are surfaced to the policy on its next selection.
type Note struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Content   string     `json:"content"`
	Source    NoteSource `json:"source"`
	Reviewed  bool       `json:"reviewed"`
}

// NewNote creates an unreviewed note.
func NewNote(content string, source NoteSource) Note {
	return Note{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Content:   content,
		Source:    source,
	}
}
