package project

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reopens a project whenever one of its inputs changes.
type Watcher struct {
	path     string
	logger   *zap.Logger
	debounce time.Duration

	fs     *fsnotify.Watcher
	dirs   map[string]bool
	inputs map[string]bool
}

// NewWatcher watches the project file at path. A zero debounce means
// DefaultDebounce.
func NewWatcher(path string, logger *zap.Logger, debounce time.Duration) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		logger:   logger.Named("watch"),
		debounce: debounce,
	}
}

// Run opens the project and hands it to report, then does so again after
// every change to its inputs until ctx is done. The project is closed when
// report returns. A project that fails to open is reported with its error
// and watching continues.
func (w *Watcher) Run(ctx context.Context, report func(*Project, error)) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.fs = fs
	w.dirs = make(map[string]bool)
	w.inputs = map[string]bool{w.path: true}
	defer fs.Close()

	w.reload(ctx, report)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.inputs[filepath.Clean(ev.Name)] {
				continue
			}
			w.logger.Debug("input changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(ctx, report)

		case err, ok := <-fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context, report func(*Project, error)) {
	p, err := Open(ctx, w.path, w.logger)
	if err != nil {
		report(nil, err)
		// Keep the previous inputs so fixing any of them triggers a retry.
		return
	}
	defer func() {
		if err := p.Close(); err != nil {
			w.logger.Warn("closing project", zap.Error(err))
		}
	}()

	w.inputs = map[string]bool{w.path: true}
	for _, in := range p.Inputs {
		w.inputs[filepath.Clean(in)] = true
	}
	w.sync()
	report(p, nil)
}

// sync watches the directory of every input. Editors often replace files
// rather than write them, so directories are watched instead of files.
func (w *Watcher) sync() {
	want := make(map[string]bool)
	for in := range w.inputs {
		want[filepath.Dir(in)] = true
	}
	for dir := range w.dirs {
		if !want[dir] {
			_ = w.fs.Remove(dir)
			delete(w.dirs, dir)
		}
	}
	for dir := range want {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.dirs[dir] = true
	}
	w.logger.Debug("watching", zap.Int("inputs", len(w.inputs)), zap.Int("dirs", len(w.dirs)))
}
