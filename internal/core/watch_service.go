package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 1 * time.Second

// WatchPolicy watches the policy file at path and runs callback after each
// change settles. It blocks until ctx is done.
func WatchPolicy(ctx context.Context, path string, ui UICallback, callback func() error) error {
	return watchFile(ctx, path, watchDebounce, ui, callback)
}

func watchFile(ctx context.Context, path string, debounceDelay time.Duration, ui UICallback, callback func() error) error {
	if ui == nil {
		ui = &SilentUICallback{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	// Also watch the directory for when file is deleted/recreated
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	ui.ShowInfo(fmt.Sprintf("Watching for changes to %s (Ctrl+C to stop)", path))

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if ctx.Err() != nil {
					return
				}
				if _, err := os.Stat(path); err != nil {
					ui.ShowWarning("File Not Found", "Policy file was deleted or is inaccessible")
					return
				}
				if err := callback(); err != nil {
					ui.ShowError("Rebuild Failed", err.Error())
					return
				}
				ui.ShowSuccess(fmt.Sprintf("Rebuilt preview after change to %s", filepath.Base(path)))
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", path, "err", err)
		}
	}
}
