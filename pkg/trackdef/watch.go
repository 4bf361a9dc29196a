package trackdef

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
)

// Watch signals on the returned channel whenever the file is written or
// recreated. The directory is watched so editors replacing the file are
// covered as well. The channel is closed when ctx is done.
func Watch(ctx context.Context, file string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, err
	}
	l := log.Default().Named("trackdef.watch")
	target := filepath.Clean(file)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target ||
					!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				l.Debug("definition changed", log.String("file", ev.Name))
				// coalesce bursts of events
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warn("watch error", log.ErrorField(err))
			}
		}
	}()
	return ch, nil
}
