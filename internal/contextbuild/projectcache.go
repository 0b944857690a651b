package contextbuild

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/cadenroberts/ollamabot/internal/logging"
)

// skipDirs are never included in the project snapshot.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// ProjectCache maintains a directory-tree snapshot for the
// project-structure section. A filesystem watcher invalidates the
// snapshot on changes; the next read rebuilds it lazily.
type ProjectCache struct {
	mu      sync.Mutex
	root    string
	lines   []string
	valid   bool
	watcher *fsnotify.Watcher
	logger  *logging.Logger
}

// NewProjectCache creates a cache rooted at a directory.
func NewProjectCache(root string, logger *logging.Logger) *ProjectCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProjectCache{root: root, logger: logger}
}

// Watch starts invalidating the snapshot on filesystem events. Safe to
// skip; without a watcher callers invalidate explicitly via Update.
func (c *ProjectCache) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(c.root); err != nil {
		w.Close()
		return err
	}
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	go func() {
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				c.invalidate()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Debug("project watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher.
func (c *ProjectCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
	}
}

func (c *ProjectCache) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Update replaces the snapshot with an explicit file listing.
func (c *ProjectCache) Update(root string, files []string) {
	lines := renderTreeFromPaths(files)
	c.mu.Lock()
	c.root = root
	c.lines = lines
	c.valid = true
	c.mu.Unlock()
}

// Tree returns the snapshot lines, rebuilding from disk when invalid.
func (c *ProjectCache) Tree() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		c.lines = scanTree(c.root)
		c.valid = true
	}
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func scanTree(root string) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			rel += "/"
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return renderTreeFromPaths(paths)
}

// renderTreeFromPaths renders slash paths as an indented tree, two
// spaces per level.
func renderTreeFromPaths(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var lines []string
	for _, p := range sorted {
		trimmed := strings.TrimSuffix(p, "/")
		depth := strings.Count(trimmed, "/")
		name := trimmed
		if i := strings.LastIndex(trimmed, "/"); i >= 0 {
			name = trimmed[i+1:]
		}
		if strings.HasSuffix(p, "/") {
			name += "/"
		}
		lines = append(lines, strings.Repeat("  ", depth)+name)
	}
	return lines
}
