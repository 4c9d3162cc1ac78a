package affiliate

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the table at path whenever it changes and passes the new
// table to onChange. It runs until ctx is cancelled. A reload that fails to
// parse is logged and the previous table stays active.
//
// The parent directory is watched rather than the file, so saves that write
// a temp file and rename it over path are seen too.
func Watch(ctx context.Context, path string, onChange func(*Table)) error {
	target := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("affiliate: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			t, err := LoadFile(target)
			if err != nil {
				slog.Error("affiliate: reload failed, keeping previous table", "path", target, "error", err)
				continue
			}

			slog.Info("affiliate: reloaded", "path", target, "regions", len(t.Regions))
			onChange(t)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("affiliate: watcher error", "error", err)
		}
	}
}
