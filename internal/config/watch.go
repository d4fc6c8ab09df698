package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/combatlog/pkg/logger"
)

// reloadDelay is how long the file must stay quiet before it is reloaded.
// Writers truncate before they write, so reacting to the first event would
// read an empty file.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path once writes to it settle and passes the new Config to
// onChange. Empty reads and failed reloads keep the previous config and are
// only logged. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, log logger.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchConfig, err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWatchConfig, path, err)
	}
	log.Info(ctx, "watching config", logger.String("path", path))

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Atomic saves replace the file, so Create counts as a write.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(reloadDelay)
			}

		case <-timer.C:
			reload(ctx, path, log, onChange)
			// An atomic save swaps the inode; watch the new one.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "config watcher error", logger.Error(err))
		}
	}
}

func reload(ctx context.Context, path string, log logger.Logger, onChange func(*Config)) {
	info, err := os.Stat(path)
	if err != nil {
		log.Error(ctx, "config reload failed, keeping previous", logger.String("path", path), logger.Error(err))
		return
	}
	if info.Size() == 0 {
		log.Debug(ctx, "config file is empty, keeping previous", logger.String("path", path))
		return
	}
	cfg, err := LoadFile(ctx, path)
	if err != nil {
		log.Error(ctx, "config reload failed, keeping previous", logger.String("path", path), logger.Error(err))
		return
	}
	log.Info(ctx, "config reloaded", logger.String("path", path))
	onChange(cfg)
}
