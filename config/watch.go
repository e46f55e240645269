package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/compositor"
)

// Watch reloads the file at path each time it is written or replaced and
// passes every config that loads cleanly to fn. A config that fails to load
// is logged and skipped. Watch blocks until ctx is done.
//
// The containing directory is watched rather than the file, so editors that
// save by renaming a temporary file are seen too.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

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
			cfg, err := Load(path)
			if err != nil {
				compositor.Logger().Warn("config: reload failed", "path", path, "err", err)
				continue
			}
			compositor.Logger().Info("config: reloaded", "path", path)
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			compositor.Logger().Warn("config: watch error", "err", err)
		}
	}
}
