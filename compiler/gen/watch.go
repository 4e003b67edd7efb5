package gen

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDelay is how long Watch waits for writes to settle before it
// regenerates.
var WatchDelay = 100 * time.Millisecond

// Watch calls fn each time the file at path is written or replaced, until
// ctx is done. Failures of fn are logged and watching continues.
func Watch(ctx context.Context, path string, log *slog.Logger, fn func(context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Editors often save by renaming a temporary file over the original,
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log.Info("watching schema", "path", path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(WatchDelay)
			} else {
				timer.Reset(WatchDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				log.Error("regenerate failed", "path", path, "error", err)
				continue
			}
			log.Info("regenerated", "path", path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", path, "error", err)
		}
	}
}
