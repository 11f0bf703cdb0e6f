package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"bmad/internal/logging"
)

// DefaultDebounce coalesces bursts of fs events (editor save storms, bulk
// copies) into a single rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watch runs an initial build, then rebuilds the named bundles whenever the
// source tree changes, until ctx is cancelled. Rebuild failures are logged
// and watching continues; only watcher failures end the loop.
func (b *Builder) Watch(ctx context.Context, names []string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := logging.New("watcher")

	if _, err := b.Build(names); err != nil {
		logger.Error("initial build failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addRecursive(watcher, b.SrcDir); err != nil {
		return err
	}
	logger.Info("watching for changes", "src", b.SrcDir, "debounce", debounce)

	// The timer starts drained; stop-drain-reset on every event keeps at
	// most one pending rebuild per burst.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories must be watched before their content changes.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("watch new dir", "path", event.Name, "error", err)
					}
				}
			}
			logger.Debug("fs event", "op", event.Op.String(), "path", event.Name)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)

		case <-timer.C:
			if _, err := b.Build(names); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

// addRecursive watches root and every directory below it.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name == ".git" || name == "node_modules" {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
