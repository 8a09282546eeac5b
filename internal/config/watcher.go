package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce is how long writes must settle before a reload.
var watchDebounce = 500 * time.Millisecond

// Watch reloads path whenever it changes and passes each successfully
// loaded Config to onChange. Invalid files are logged and skipped. onChange
// runs on the watching goroutine, one call at a time. Watch blocks until ctx
// is done.
func Watch(ctx context.Context, path string, log zerolog.Logger, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reloads := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			reloads++
			cfg, err := Load(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("config reload failed")
				continue
			}
			log.Info().Str("path", path).Int("count", reloads).Msg("config reloaded")
			onChange(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher")
		}
	}
}
