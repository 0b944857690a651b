package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cadenroberts/ollamabot/internal/core"
	"github.com/cadenroberts/ollamabot/internal/fsutil"
)

// maxGrepFileSize bounds the fallback search: larger files are skipped.
const maxGrepFileSize = 1 << 20

// ReadFile reads a file and attaches its content and metadata.
func (a *Agent) ReadFile(ctx context.Context, path string) (*core.Action, error) {
	action := core.NewAction("", core.ActionReadFile, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(context.Context) error {
		abs := a.abs(path)
		data, err := fsutil.ReadFileScoped(abs)
		if err != nil {
			return core.ErrIO("READ_FAILED", "reading file").WithCause(err)
		}
		action.Content = string(data)
		action.Output = string(data)
		stampFileMeta(action, abs)
		return nil
	})
}

// SearchFiles greps for a literal substring. An external ripgrep is
// preferred; when unavailable the tree is walked concurrently, skipping
// files above 1 MiB. Results are formatted path:line:snippet.
func (a *Agent) SearchFiles(ctx context.Context, root, query string) (*core.Action, error) {
	action := core.NewAction("", core.ActionSearchFiles, a.now())
	action.Path = root
	action.Command = query
	return a.dispatch(ctx, action, func(ctx context.Context) error {
		if query == "" {
			return core.ErrValidation("EMPTY_QUERY", "search query must not be empty")
		}
		abs := a.abs(root)
		if out, err := ripgrep(ctx, abs, query); err == nil {
			action.Output = out
			action.Metadata["search_tool"] = "ripgrep"
			return nil
		}
		out, err := grepWalk(ctx, abs, query)
		if err != nil {
			return err
		}
		action.Output = out
		action.Metadata["search_tool"] = "walk"
		return nil
	})
}

func ripgrep(ctx context.Context, root, query string) (string, error) {
	if _, err := exec.LookPath("rg"); err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, "rg", "--fixed-strings", "--line-number", "--no-heading", query, ".")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		// Exit code 1 means no matches; that is a successful empty result.
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func grepWalk(ctx context.Context, root, query string) (string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > maxGrepFileSize {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return "", core.ErrIO("SEARCH_FAILED", "walking tree").WithCause(err)
	}

	var mu sync.Mutex
	var results []string
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			content := string(data)
			if !strings.Contains(content, query) {
				return nil
			}
			rel, rerr := filepath.Rel(root, p)
			if rerr != nil {
				rel = p
			}
			for i, line := range strings.Split(content, "\n") {
				if strings.Contains(line, query) {
					mu.Lock()
					results = append(results, fmt.Sprintf("%s:%d:%s", rel, i+1, strings.TrimSpace(line)))
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", core.ErrCancelled("search interrupted").WithCause(err)
	}
	sort.Strings(results)
	return strings.Join(results, "\n"), nil
}

// ListDirectory lists immediate children; directories carry a trailing
// slash. Metadata records the entry count.
func (a *Agent) ListDirectory(ctx context.Context, path string) (*core.Action, error) {
	action := core.NewAction("", core.ActionListDirectory, a.now())
	action.Path = path
	return a.dispatch(ctx, action, func(context.Context) error {
		entries, err := os.ReadDir(a.abs(path))
		if err != nil {
			return core.ErrIO("LIST_FAILED", "listing directory").WithCause(err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		action.Output = strings.Join(names, "\n")
		action.Metadata["entry_count"] = len(entries)
		return nil
	})
}
