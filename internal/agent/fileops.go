package agent

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cadenroberts/ollamabot/internal/core"
)

func joinWorkspace(workspace, path string) string {
	if workspace == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workspace, path)
}

// stampFileMeta attaches size, mode, and mtime metadata for a path.
func stampFileMeta(action *core.Action, abs string) {
	info, err := os.Stat(abs)
	if err != nil {
		return
	}
	action.Metadata["file_size"] = info.Size()
	action.Metadata["file_mode"] = info.Mode().String()
	action.Metadata["file_mtime"] = info.ModTime()
}

// CreateFile writes content to a path, creating parent directories and
// overwriting any existing file. Empty content creates an empty file.
func (a *Agent) CreateFile(ctx context.Context, path, content string) (*core.Action, error) {
	action := core.NewAction("", core.ActionCreateFile, a.now())
	action.Path = path
	action.Content = content
	return a.dispatch(ctx, action, func(context.Context) error {
		abs := a.abs(path)
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return core.ErrIO("CREATE_FAILED", "creating parent directory").WithCause(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			return core.ErrIO("CREATE_FAILED", "writing file").WithCause(err)
		}
		stampFileMeta(action, abs)
		return nil
	})
}

// DeleteFile removes a file. A missing file is idempotent success.
func (a *Agent) DeleteFile(ctx context.Context, path string) (*core.Action, error) {
	action := core.NewAction("", core.ActionDeleteFile, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(context.Context) error {
		if err := os.Remove(a.abs(path)); err != nil && !os.IsNotExist(err) {
			return core.ErrIO("DELETE_FAILED", "removing file").WithCause(err)
		}
		return nil
	})
}

// EditFile rewrites an existing file. When content is non-empty the
// whole file is replaced; otherwise the edit list is applied, which
// requires line edits to be enabled.
func (a *Agent) EditFile(ctx context.Context, path, content string, edits []core.Edit) (*core.Action, error) {
	action := core.NewAction("", core.ActionEditFile, a.now())
	action.Path = path
	action.Content = content
	action.Edits = edits
	return a.dispatch(ctx, action, func(context.Context) error {
		abs := a.abs(path)
		old, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return core.ErrValidation("FILE_NOT_FOUND", "edit target does not exist: "+path)
			}
			return core.ErrIO("EDIT_FAILED", "reading edit target").WithCause(err)
		}

		var updated string
		switch {
		case content != "":
			updated = content
		case len(edits) > 0:
			if !a.lineEditsEnabled {
				return core.ErrValidation("LINE_EDITS_DISABLED", "line-range edits are not enabled")
			}
			updated, err = applyEdits(string(old), edits)
			if err != nil {
				return err
			}
		default:
			return core.ErrValidation("EMPTY_EDIT", "edit requires content or an edit list")
		}

		info, statErr := os.Stat(abs)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(abs, []byte(updated), mode); err != nil {
			return core.ErrIO("EDIT_FAILED", "writing edit target").WithCause(err)
		}

		action.Diff = summarizeChange(string(old), updated)
		stampFileMeta(action, abs)
		return nil
	})
}

// RenameFile renames a file via atomic move within its directory tree.
func (a *Agent) RenameFile(ctx context.Context, path, dest string) (*core.Action, error) {
	return a.twoPathFileOp(ctx, core.ActionRenameFile, path, dest, false)
}

// MoveFile moves a file, creating the destination's parent first.
func (a *Agent) MoveFile(ctx context.Context, path, dest string) (*core.Action, error) {
	return a.twoPathFileOp(ctx, core.ActionMoveFile, path, dest, true)
}

func (a *Agent) twoPathFileOp(ctx context.Context, typ core.ActionType, path, dest string, mkparent bool) (*core.Action, error) {
	action := core.NewAction("", typ, a.now())
	action.Path = path
	action.DestPath = dest
	return a.dispatch(ctx, action, func(context.Context) error {
		absDest := a.abs(dest)
		if mkparent {
			if err := os.MkdirAll(filepath.Dir(absDest), 0o755); err != nil {
				return core.ErrIO("MOVE_FAILED", "creating destination parent").WithCause(err)
			}
		}
		if err := os.Rename(a.abs(path), absDest); err != nil {
			return core.ErrIO("MOVE_FAILED", "renaming file").WithCause(err)
		}
		stampFileMeta(action, absDest)
		return nil
	})
}

// CopyFile copies a file preserving its mode.
func (a *Agent) CopyFile(ctx context.Context, path, dest string) (*core.Action, error) {
	action := core.NewAction("", core.ActionCopyFile, a.now())
	action.Path = path
	action.DestPath = dest
	return a.dispatch(ctx, action, func(context.Context) error {
		if err := copyFile(a.abs(path), a.abs(dest)); err != nil {
			return core.ErrIO("COPY_FAILED", "copying file").WithCause(err)
		}
		stampFileMeta(action, a.abs(dest))
		return nil
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode())
}

// CreateDir creates a directory tree.
func (a *Agent) CreateDir(ctx context.Context, path string) (*core.Action, error) {
	action := core.NewAction("", core.ActionCreateDir, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(context.Context) error {
		if err := os.MkdirAll(a.abs(path), 0o755); err != nil {
			return core.ErrIO("MKDIR_FAILED", "creating directory").WithCause(err)
		}
		return nil
	})
}

// DeleteDir removes a directory tree.
func (a *Agent) DeleteDir(ctx context.Context, path string) (*core.Action, error) {
	action := core.NewAction("", core.ActionDeleteDir, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(context.Context) error {
		if err := os.RemoveAll(a.abs(path)); err != nil {
			return core.ErrIO("RMDIR_FAILED", "removing directory").WithCause(err)
		}
		return nil
	})
}

// RenameDir atomically renames a directory tree root.
func (a *Agent) RenameDir(ctx context.Context, path, dest string) (*core.Action, error) {
	return a.twoPathDirOp(ctx, core.ActionRenameDir, path, dest, false)
}

// MoveDir moves a directory tree, creating the destination parent.
func (a *Agent) MoveDir(ctx context.Context, path, dest string) (*core.Action, error) {
	return a.twoPathDirOp(ctx, core.ActionMoveDir, path, dest, true)
}

func (a *Agent) twoPathDirOp(ctx context.Context, typ core.ActionType, path, dest string, mkparent bool) (*core.Action, error) {
	action := core.NewAction("", typ, a.now())
	action.Path = path
	action.DestPath = dest
	return a.dispatch(ctx, action, func(context.Context) error {
		absDest := a.abs(dest)
		if mkparent {
			if err := os.MkdirAll(filepath.Dir(absDest), 0o755); err != nil {
				return core.ErrIO("MOVE_FAILED", "creating destination parent").WithCause(err)
			}
		}
		if err := os.Rename(a.abs(path), absDest); err != nil {
			return core.ErrIO("MOVE_FAILED", "renaming directory").WithCause(err)
		}
		return nil
	})
}

// CopyDir recursively copies a directory tree preserving per-entry
// modes.
func (a *Agent) CopyDir(ctx context.Context, path, dest string) (*core.Action, error) {
	action := core.NewAction("", core.ActionCopyDir, a.now())
	action.Path = path
	action.DestPath = dest
	return a.dispatch(ctx, action, func(context.Context) error {
		if err := copyDir(a.abs(path), a.abs(dest)); err != nil {
			return core.ErrIO("COPY_FAILED", "copying directory").WithCause(err)
		}
		return nil
	})
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}

// applyEdits applies line-range edits bottom-up so earlier edits do not
// shift the line numbers of later ones.
func applyEdits(content string, edits []core.Edit) (string, error) {
	lines := splitKeepAll(content)
	ordered := make([]core.Edit, len(edits))
	copy(ordered, edits)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].StartLine > ordered[i].StartLine {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	for _, e := range ordered {
		if e.StartLine < 1 || e.EndLine < e.StartLine || e.EndLine > len(lines) {
			return "", core.ErrValidation("EDIT_RANGE",
				"edit range outside file bounds")
		}
		replacement := splitKeepAll(e.NewContent)
		head := append([]string{}, lines[:e.StartLine-1]...)
		tail := lines[e.EndLine:]
		lines = append(append(head, replacement...), tail...)
	}
	return joinLines(lines), nil
}

func splitKeepAll(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start <= len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
