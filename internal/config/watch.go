package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit for one save.
const reloadDebounce = 100 * time.Millisecond

// Watch follows the YAML file at path and applies its log_level to level
// whenever the file changes. It blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors which
// save by rename keep triggering reloads.
func Watch(ctx context.Context, path string, level *slog.LevelVar, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	logger.Info("watching config file", "path", abs)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)

		case <-debounce:
			debounce = nil
			reloadLevel(abs, level, logger)
		}
	}
}

func reloadLevel(path string, level *slog.LevelVar, logger *slog.Logger) {
	fc, err := readFile(path)
	if err != nil {
		logger.Warn("reload config", "path", path, "error", err)
		return
	}
	if fc.LogLevel == nil {
		return
	}

	next := parseLogLevel(*fc.LogLevel)
	if next == level.Level() {
		return
	}
	prev := level.Level()
	level.Set(next)
	logger.Info("log level changed", "from", prev.String(), "to", next.String())
}
