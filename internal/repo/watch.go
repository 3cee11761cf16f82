// internal/repo/watch.go
package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher auto-stages worktree changes as they happen. Write and create
// events on non-ignored files trigger an Add after a debounce window.
type Watcher struct {
	repo     *Repository
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	lastSeen map[string]time.Time
	done     chan struct{}
	logger   *zap.Logger
}

// NewWatcher creates a Watcher over the repository's worktree and
// starts its event loop.
func NewWatcher(r *Repository) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		repo:     r,
		watcher:  watcher,
		debounce: time.Duration(r.Config.Watch.DebounceMillis) * time.Millisecond,
		lastSeen: make(map[string]time.Time),
		done:     make(chan struct{}),
		logger:   r.Logger,
	}

	if err := w.watchTree(); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching worktree: %w", err)
	}

	go w.loop()

	return w, nil
}

// watchTree registers every non-ignored directory with the watcher.
func (w *Watcher) watchTree() error {
	return filepath.WalkDir(w.repo.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		if path != w.repo.Root && shouldIgnorePath(filepath.Base(path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("adding directory to watcher: %w", err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	relPath, err := filepath.Rel(w.repo.Root, event.Name)
	if err != nil || shouldIgnorePath(relPath) {
		return
	}

	// New directories need to join the watch set
	if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
		if err := w.watcher.Add(event.Name); err != nil {
			w.logger.Warn("failed to watch new directory",
				zap.String("path", relPath),
				zap.Error(err))
		}
		return
	}

	if !w.shouldStage(relPath) {
		return
	}

	if err := w.repo.Add(relPath); err != nil {
		w.logger.Warn("failed to auto-stage file",
			zap.String("path", relPath),
			zap.Error(err))
		return
	}

	w.logger.Info("auto-staged file", zap.String("path", relPath))
}

// shouldStage rate-limits per path so editors that fire bursts of write
// events stage the file once per debounce window.
func (w *Watcher) shouldStage(relPath string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if last, ok := w.lastSeen[relPath]; ok && now.Sub(last) < w.debounce {
		return false
	}
	w.lastSeen[relPath] = now
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Close stops the event loop and releases the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
