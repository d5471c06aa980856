package param

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reports changes to the file at path on the returned channel, at
// most once per debounce period. The directory is watched so that editors
// which replace the file are seen too. The channel is closed when ctx ends.
func Watch(ctx context.Context, path string, debounce time.Duration) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go watch(ctx, w, filepath.Clean(path), debounce, out)
	return out, nil
}

func watch(ctx context.Context, w *fsnotify.Watcher, path string, debounce time.Duration, out chan<- struct{}) {
	defer close(out)
	defer w.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case out <- struct{}{}:
			default:
				// A reload is already pending
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", path).Msg("params watcher error")
		}
	}
}
