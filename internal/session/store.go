package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/fsutil"
	"github.com/cadenroberts/ollamabot/internal/logging"
)

// legacyFileName is the single serialized file inside a legacy
// per-session directory.
const legacyFileName = "session.usf"

// Info is the summary metadata returned by GetInfo and List.
type Info struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Platform    Platform `json:"platform"`
	StepCount   int      `json:"step_count"`
	Format      string   `json:"format"`
	UpdatedAt   time.Time
}

// Store persists USF records in a sessions directory.
type Store struct {
	dir    string
	index  *Index
	logger *logging.Logger
}

// StoreOption configures a store.
type StoreOption func(*Store)

// WithIndex attaches a summary index kept beside the session files.
func WithIndex(idx *Index) StoreOption {
	return func(s *Store) { s.index = idx }
}

// WithLogger installs a logger.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store rooted at a sessions directory.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, core.ErrIO("STORE_INIT_FAILED", "creating sessions directory").WithCause(err)
	}
	s := &Store{dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the sessions directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save atomically writes a session record, stamping updated_at.
func (s *Store) Save(sess *Session) error {
	if sess.SessionID == "" {
		return core.ErrValidation("EMPTY_SESSION_ID", "session has no id")
	}
	sess.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if sess.Version == "" {
		sess.Version = FormatVersion
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return core.ErrIO("MARSHAL_FAILED", "encoding session").WithCause(err)
	}
	if err := fsutil.AtomicWriteFile(s.path(sess.SessionID), data, 0o600); err != nil {
		return core.ErrIO("WRITE_FAILED", "writing session file").WithCause(err)
	}
	if s.index != nil {
		if err := s.index.Upsert(infoOf(sess)); err != nil {
			s.logger.Warn("session index update failed", "error", err)
		}
	}
	return nil
}

// Load reads a session by id. A legacy per-session directory is
// migrated first.
func (s *Store) Load(id string) (*Session, error) {
	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if s.isLegacy(id) {
			if err := s.Migrate(id); err != nil {
				return nil, err
			}
		} else {
			return nil, core.ErrValidation(core.CodeSessionNotFound, "no session "+id)
		}
	}
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, core.ErrIO("READ_FAILED", "reading session file").WithCause(err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, core.ErrCorruption(path, "session file failed to parse").WithCause(err)
	}
	return &sess, nil
}

// List enumerates available session ids, newest first.
func (s *Store) List() ([]string, error) {
	if s.index != nil {
		// An empty or damaged index falls through to a directory scan;
		// the index is a cache, never the source of truth.
		if ids, err := s.index.List(); err == nil && len(ids) > 0 {
			return ids, nil
		}
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, core.ErrIO("LIST_FAILED", "reading sessions directory").WithCause(err)
	}
	type stamped struct {
		id string
		at time.Time
	}
	var found []stamped
	for _, e := range entries {
		name := e.Name()
		switch {
		case !e.IsDir() && strings.HasSuffix(name, ".json"):
			at := time.Time{}
			if info, err := e.Info(); err == nil {
				at = info.ModTime()
			}
			found = append(found, stamped{strings.TrimSuffix(name, ".json"), at})
		case e.IsDir() && !strings.HasPrefix(name, ".migrated_") && s.isLegacy(name):
			found = append(found, stamped{name, time.Time{}})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].at.After(found[j].at) })
	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.id
	}
	return ids, nil
}

// GetInfo returns summary metadata for a session.
func (s *Store) GetInfo(id string) (Info, error) {
	if s.index != nil {
		if info, err := s.index.Get(id); err == nil {
			return info, nil
		}
	}
	if s.isLegacy(id) {
		return Info{ID: id, Format: "legacy"}, nil
	}
	sess, err := s.Load(id)
	if err != nil {
		return Info{}, err
	}
	return infoOf(sess), nil
}

// Resolve finds a session id by exact or fuzzy match.
func (s *Store) Resolve(query string) (string, error) {
	ids, err := s.List()
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id == query {
			return id, nil
		}
	}
	matches := fuzzy.Find(query, ids)
	if len(matches) == 0 {
		return "", core.ErrValidation(core.CodeSessionNotFound, "no session matches "+query)
	}
	return matches[0].Str, nil
}

// isLegacy reports whether the id names a legacy per-session directory.
func (s *Store) isLegacy(id string) bool {
	_, err := os.Stat(filepath.Join(s.dir, id, legacyFileName))
	return err == nil
}

// Migrate converts a legacy per-session directory into a flat record.
// The legacy directory is renamed, not deleted.
func (s *Store) Migrate(id string) error {
	legacyDir := filepath.Join(s.dir, id)
	legacyPath := filepath.Join(legacyDir, legacyFileName)
	data, err := fsutil.ReadFileScoped(legacyPath)
	if err != nil {
		return core.ErrIO("MIGRATE_FAILED", "reading legacy session").WithCause(err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return core.ErrCorruption(legacyPath, "legacy session failed to parse").WithCause(err)
	}
	if sess.SessionID == "" {
		sess.SessionID = id
	}
	if sess.Version == "" {
		sess.Version = FormatVersion
	}
	if err := s.Save(&sess); err != nil {
		return err
	}
	if err := os.Rename(legacyDir, filepath.Join(s.dir, ".migrated_"+id)); err != nil {
		return core.ErrIO("MIGRATE_FAILED", "renaming legacy directory").WithCause(err)
	}
	s.logger.Info("migrated legacy session", "session_id", id)
	return nil
}

// AddCheckpoint appends a checkpoint to a session and persists it.
// Returns the new checkpoint's id.
func (s *Store) AddCheckpoint(sess *Session, name, gitCommit string) (string, error) {
	cp := Checkpoint{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		FlowCode:  sess.OrchestrationState.FlowCode,
		GitCommit: gitCommit,
		SessionID: sess.SessionID,
	}
	sess.Checkpoints = append(sess.Checkpoints, cp)
	if err := s.Save(sess); err != nil {
		return "", err
	}
	return cp.ID, nil
}

func infoOf(sess *Session) Info {
	return Info{
		ID:          sess.SessionID,
		Description: sess.Task.Description,
		Platform:    sess.SourcePlatform,
		StepCount:   len(sess.ConversationHistory),
		Format:      fmt.Sprintf("usf-%s", sess.Version),
		UpdatedAt:   sess.UpdatedAt,
	}
}
