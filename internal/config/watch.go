package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agentgate-ai/agentgate/internal/logging"
	"github.com/agentgate-ai/agentgate/pkg/types"
)

// debounceWindow absorbs the write-then-rename bursts editors produce.
const debounceWindow = 200 * time.Millisecond

// WatchRules reloads the YAML rules file whenever it changes and hands the
// new set to onReload. The parent directory is watched so atomic replaces
// (write to temp, rename over) are seen. Blocks until ctx is cancelled.
func WatchRules(ctx context.Context, path string, onReload func([]types.Rule)) error {
	log := logging.For("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	var timer *time.Timer
	reload := func() {
		rules, err := LoadRules(target)
		if err != nil {
			log.Warn().Err(err).Str("path", target).Msg("rules reload failed; keeping previous set")
			return
		}
		log.Info().Int("count", len(rules)).Str("path", target).Msg("rules reloaded")
		onReload(rules)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("rules watcher error")
		}
	}
}
