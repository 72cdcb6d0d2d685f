package feed

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/suggest"
)

// WatchEvents re-reads the events file at path whenever it changes and passes
// the new list (or the load error) to onChange, until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a new file and renaming it are picked up.
func WatchEvents(ctx context.Context, path string, log *zap.Logger, onChange func([]suggest.Event, error)) error {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("events file changed", zap.String("path", abs), zap.Stringer("op", event.Op))
			events, err := LoadEvents(abs)
			onChange(events, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Non-fatal; keep watching.
			log.Debug("watcher error", zap.Error(err))
		}
	}
}
