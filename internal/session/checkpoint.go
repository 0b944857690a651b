package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/fsutil"
)

// CheckpointStore persists named snapshots under
// <root>/checkpoints/<project-hash>/, one JSON file per checkpoint.
// Checkpoints reference their session by id, never by pointer.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates a checkpoint store for one project.
func NewCheckpointStore(configRoot, projectPath string) (*CheckpointStore, error) {
	dir := filepath.Join(configRoot, "checkpoints", ProjectHash(projectPath))
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, core.ErrIO("CHECKPOINT_INIT_FAILED", "creating checkpoint directory").WithCause(err)
	}
	return &CheckpointStore{dir: dir}, nil
}

// ProjectHash derives the stable directory name for a project path.
func ProjectHash(projectPath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(projectPath)))
	return hex.EncodeToString(sum[:8])
}

// Dir returns the checkpoint directory.
func (c *CheckpointStore) Dir() string {
	return c.dir
}

// Create writes an immutable checkpoint and returns it.
func (c *CheckpointStore) Create(name, flowCode, gitCommit, sessionID string) (Checkpoint, error) {
	cp := Checkpoint{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		FlowCode:  flowCode,
		GitCommit: gitCommit,
		SessionID: sessionID,
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return Checkpoint{}, core.ErrIO("MARSHAL_FAILED", "encoding checkpoint").WithCause(err)
	}
	path := filepath.Join(c.dir, cp.ID+".json")
	if err := fsutil.AtomicWriteFile(path, data, 0o600); err != nil {
		return Checkpoint{}, core.ErrIO("WRITE_FAILED", "writing checkpoint").WithCause(err)
	}
	return cp, nil
}

// Get loads one checkpoint by id.
func (c *CheckpointStore) Get(id string) (Checkpoint, error) {
	data, err := fsutil.ReadFileScoped(filepath.Join(c.dir, id+".json"))
	if err != nil {
		return Checkpoint{}, core.ErrValidation("CHECKPOINT_NOT_FOUND", "no checkpoint "+id).WithCause(err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, core.ErrCorruption(id, "checkpoint failed to parse").WithCause(err)
	}
	return cp, nil
}

// List returns all checkpoints, newest first.
func (c *CheckpointStore) List() ([]Checkpoint, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, core.ErrIO("LIST_FAILED", "reading checkpoint directory").WithCause(err)
	}
	var cps []Checkpoint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		cp, err := c.Get(e.Name()[:len(e.Name())-len(".json")])
		if err != nil {
			continue
		}
		cps = append(cps, cp)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].Timestamp.After(cps[j].Timestamp) })
	return cps, nil
}
