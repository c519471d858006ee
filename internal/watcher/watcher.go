// Package watcher polls the slide tree and template for changes and triggers
// rebuilds. Detection is polling-based: latency is bounded by the tick
// interval, and a rebuild runs synchronously inside the watch goroutine so it
// never blocks request handling.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/autoreveal/autoreveal/internal/logging"
)

// ChangeHandler is invoked for every detected change; it runs the rebuild.
type ChangeHandler func(ctx context.Context) error

// PollWatcher tracks the template file plus the full recursive listing under
// the slides root. When the path set itself changes the registry is replaced
// wholesale and a rebuild is forced; otherwise any differing modification
// timestamp forces a rebuild.
type PollWatcher struct {
	templatePath string
	slidesDir    string
	interval     time.Duration
	onChange     ChangeHandler
	logger       logging.Logger

	paths    []string
	registry map[string]time.Time
}

// New creates a polling watcher with the given tick interval.
func New(templatePath, slidesDir string, interval time.Duration, onChange ChangeHandler, logger logging.Logger) *PollWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &PollWatcher{
		templatePath: templatePath,
		slidesDir:    slidesDir,
		interval:     interval,
		onChange:     onChange,
		logger:       logger,
	}
}

// Run blocks, polling until the context is canceled. The initial snapshot is
// taken before the first tick, so changes made while the watcher is starting
// are detected on the next tick.
func (w *PollWatcher) Run(ctx context.Context) {
	w.paths = w.listFiles()
	w.registry = statAll(w.paths)
	w.logger.Info(ctx, "watching for changes", "files", len(w.paths), "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick performs one poll. A structural change (paths added or removed)
// short-circuits the per-file timestamp comparison.
func (w *PollWatcher) tick(ctx context.Context) {
	current := w.listFiles()
	if !samePathSet(current, w.paths) {
		w.logger.Info(ctx, "files added or removed, updating watch list", "files", len(current))
		w.paths = current
		w.registry = statAll(current)
		w.rebuild(ctx)
		return
	}

	changed := false
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if prev, ok := w.registry[path]; !ok || !info.ModTime().Equal(prev) {
			changed = true
			w.registry[path] = info.ModTime()
			w.logger.Info(ctx, "change detected", "path", path)
		}
	}

	if changed {
		w.rebuild(ctx)
	}
}

// rebuild invokes the change handler. A failed rebuild is logged, not
// retried; the next tick re-attempts if the triggering condition persists.
func (w *PollWatcher) rebuild(ctx context.Context) {
	if err := w.onChange(ctx); err != nil {
		w.logger.Error(ctx, err, "rebuild failed")
	}
}

// listFiles returns the template path plus every file under the slides root.
func (w *PollWatcher) listFiles() []string {
	files := []string{w.templatePath}
	_ = filepath.WalkDir(w.slidesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func statAll(paths []string) map[string]time.Time {
	registry := make(map[string]time.Time, len(paths))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			registry[path] = info.ModTime()
		}
	}
	return registry
}

func samePathSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
