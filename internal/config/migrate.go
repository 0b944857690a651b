package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/fsutil"
)

// MigrateLegacyConfig converts a legacy JSON configuration from the old
// obot directory into the unified YAML at the new root and installs a
// back-compat symlink old-dir -> new-dir. Idempotent: it does nothing
// when there is nothing to migrate or the target already exists.
func MigrateLegacyConfig(root string) error {
	parent := filepath.Dir(root)
	legacyDir := filepath.Join(parent, LegacyDirName)
	legacyPath := filepath.Join(legacyDir, "config.json")
	targetPath := filepath.Join(root, "config.yaml")

	if _, err := os.Stat(targetPath); err == nil {
		return nil
	}
	info, err := os.Lstat(legacyDir)
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		// Absent, or already the back-compat symlink.
		return nil
	}
	data, err := fsutil.ReadFileScoped(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return core.ErrIO("MIGRATE_FAILED", "reading legacy config").WithCause(err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.ErrCorruption(legacyPath, "legacy config failed to parse").WithCause(err)
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		return core.ErrIO("MIGRATE_FAILED", "encoding unified config").WithCause(err)
	}
	if err := fsutil.EnsureDir(root); err != nil {
		return core.ErrIO("MIGRATE_FAILED", "creating config root").WithCause(err)
	}
	if err := fsutil.AtomicWriteFile(targetPath, out, 0o600); err != nil {
		return core.ErrIO("MIGRATE_FAILED", "writing unified config").WithCause(err)
	}

	// Replace the legacy directory with a symlink so old tooling keeps
	// resolving paths. The original directory is preserved next to it.
	backup := legacyDir + ".pre-migration"
	if err := os.Rename(legacyDir, backup); err != nil {
		return core.ErrIO("MIGRATE_FAILED", "renaming legacy directory").WithCause(err)
	}
	if err := os.Symlink(root, legacyDir); err != nil {
		// Symlinks may be unavailable; the migration itself succeeded.
		_ = os.Rename(backup, legacyDir)
	}
	return nil
}
