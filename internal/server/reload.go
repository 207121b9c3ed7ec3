package server

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ppiankov/compliancewatch/internal/logging"
)

// reloadDebounce is how long the watcher waits after the last write.
var reloadDebounce = 500 * time.Millisecond

// Reloadable is anything that can re-read its configuration.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// Reloader watches the config, denylist and knowledge files and triggers
// hot-reload.
type Reloader struct {
	watcher *fsnotify.Watcher
	target  Reloadable
	paths   []string
}

// NewReloader creates a file watcher for the given paths. Empty and missing
// paths are skipped.
func NewReloader(target Reloadable, paths []string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file watcher")
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, goerr.Wrap(err, "failed to watch file", goerr.V("path", p))
		}
		watched = append(watched, p)
	}

	return &Reloader{
		watcher: watcher,
		target:  target,
		paths:   watched,
	}, nil
}

// Paths returns the files actually being watched.
func (r *Reloader) Paths() []string {
	return r.paths
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()
	logger := logging.From(ctx)

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := r.target.Reload(ctx); err != nil {
						logger.Error("hot-reload failed", "file", event.Name, slog.Any("error", err))
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", slog.Any("error", err))
		}
	}
}
