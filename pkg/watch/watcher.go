// Package watch re-runs the analysis whenever the source tree changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent represents a single filesystem change to a watched file.
type ChangeEvent struct {
	Path string
	Op   fsnotify.Op
}

// Watcher watches a source tree for changes to script sources, manifests,
// and configuration files, and emits debounced batches.
type Watcher struct {
	rootPath string
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a Watcher that recursively watches rootPath. Hidden
// directories and node_modules are skipped.
func NewWatcher(rootPath string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		rootPath: rootPath,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
	}

	if err := w.addDirs(); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// addDirs walks rootPath and adds every non-hidden, non-installation directory.
func (w *Watcher) addDirs() error {
	return filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != w.rootPath && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run is the main event loop. It reads fsnotify events, filters for relevant
// files, debounces rapid edits, and sends batched ChangeEvents to out.
// It blocks until ctx is cancelled or an unrecoverable fsnotify error occurs.
func (w *Watcher) Run(ctx context.Context, out chan<- []ChangeEvent) error {
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop() // don't fire until we have events

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.accept(ev) {
				pending[ev.Name] = ev.Op
				timer.Reset(w.debounce)
			}
			// When a new directory is created, start watching it.
			if ev.Op&fsnotify.Create != 0 {
				w.maybeAddDir(ev.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("fsnotify error", "err", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]ChangeEvent, 0, len(pending))
			for p, op := range pending {
				batch = append(batch, ChangeEvent{Path: p, Op: op})
			}
			pending = make(map[string]fsnotify.Op)

			select {
			case out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close shuts down the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// watchedExts are the suffixes whose changes invalidate the analysis.
var watchedExts = []string{
	".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx", ".mdx",
	".sh", ".yml", ".yaml",
}

// accept returns true if the event is for a relevant file and carries a
// relevant op. Manifests and configuration files count alongside sources.
func (w *Watcher) accept(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if base == "package.json" || strings.Contains(base, "sweeper") {
		return true
	}
	for _, ext := range watchedExts {
		if strings.HasSuffix(ev.Name, ext) {
			return true
		}
	}
	return false
}

// maybeAddDir adds path to the watch set if it is a directory.
func (w *Watcher) maybeAddDir(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") || filepath.Base(path) == "node_modules" {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Debug("could not add to watch", "path", path, "err", err)
	}
}
