package service

import (
	"sync"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/orchestrator"
	"github.com/cadenroberts/ollamabot/internal/session"
)

// SessionWriter maps orchestration snapshots onto a USF record and
// persists it. The orchestrator owns the writer, never the session.
type SessionWriter struct {
	mu    sync.Mutex
	store *session.Store
	sess  *session.Session
}

// NewSessionWriter binds a writer to a session record.
func NewSessionWriter(store *session.Store, sess *session.Session) *SessionWriter {
	return &SessionWriter{store: store, sess: sess}
}

// Session returns the underlying record.
func (w *SessionWriter) Session() *session.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sess
}

// Persist implements orchestrator.SessionWriter.
func (w *SessionWriter) Persist(snap orchestrator.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sess.OrchestrationState = session.OrchestrationState{
		FlowCode:           snap.FlowCode,
		CurrentSchedule:    int(snap.CurrentPhase),
		CurrentProcess:     int(snap.CurrentProcess),
		CompletedSchedules: phasesToInts(snap.CompletedPhases),
	}
	w.sess.Notes = snap.Notes
	w.sess.Stats.TotalTokens = snap.TotalTokens
	w.sess.Stats.ToolsExecuted = snap.TotalActions
	w.sess.Stats.TimeElapsedSeconds = snap.Elapsed.Seconds()
	if snap.State == core.StatePromptTerminated {
		w.sess.Task.Status = "completed"
	}
	return w.store.Save(w.sess)
}

// AppendStep records a conversation step under the writer's lock.
func (w *SessionWriter) AppendStep(step session.Step) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sess.ConversationHistory = append(w.sess.ConversationHistory, step)
}

// RecordFileChange appends a modified-file entry.
func (w *SessionWriter) RecordFileChange(change session.FileChange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sess.FilesModified = append(w.sess.FilesModified, change)
}

func phasesToInts(phases []core.PhaseID) []int {
	out := make([]int, len(phases))
	for i, p := range phases {
		out[i] = int(p)
	}
	return out
}
