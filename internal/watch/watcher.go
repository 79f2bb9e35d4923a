package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/thomas-vilte/changelens/internal/logger"
)

var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
	"vendor":       true,
}

var ignoredSuffixes = []string{"~", ".swp", ".swx", ".swo", ".tmp", ".lock"}

// ChangeFunc is called for every relevant file event.
type ChangeFunc func(path string)

// Watcher reports file saves below a workspace root. Directories are
// watched recursively, new directories are picked up as they appear.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	onChange ChangeFunc
	dirs     map[string]bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

func New(root string, onChange ChangeFunc) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fw,
		root:     abs,
		onChange: onChange,
		dirs:     make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers the directory tree and starts the event loop. It does
// not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(ctx, w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	logger.Info(ctx, "watching workspace", "root", w.root, "count", len(w.WatchedDirs()))

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the OS watch handles.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	_ = w.watcher.Close()
}

// WatchedDirs returns the watched directories, sorted.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) addTree(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug(ctx, "skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.addDir(ctx, path)
	})
}

func (w *Watcher) addDir(ctx context.Context, dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		if dir == w.root {
			return err
		}
		logger.Warn(ctx, "could not watch directory", "path", dir, "error", err)
		return nil
	}
	w.dirs[dir] = true
	return nil
}

func (w *Watcher) removeDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.dirs, dir)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn(ctx, "file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(ctx, event.Name); err != nil {
				logger.Warn(ctx, "could not watch new directory", "path", event.Name, "error", err)
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.removeDir(event.Name)
	}

	logger.Debug(ctx, "file changed", "path", event.Name, "op", event.Op.String())
	w.onChange(event.Name)
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	return ShouldIgnore(rel)
}

// ShouldIgnore reports whether a root-relative path never counts as a
// save: VCS metadata, dependency dirs and editor swap files.
func ShouldIgnore(rel string) bool {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") {
		return true
	}

	for _, part := range strings.Split(rel, "/") {
		if ignoredDirs[part] {
			return true
		}
	}

	base := filepath.Base(rel)
	if base == "4913" || strings.HasPrefix(base, ".#") {
		return true
	}
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
