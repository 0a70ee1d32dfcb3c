package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/codesearch/internal/config"
	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
)

const defaultDebounceDelay = 2 * time.Second

// ConfigWatcher reloads the daemon configuration when the file on disk
// changes. It watches the containing directory rather than the file itself
// so editors that replace the file atomically still trigger a reload.
type ConfigWatcher struct {
	path    string
	daemon  *Daemon
	watcher *fsnotify.Watcher

	debounceDelay time.Duration

	mu            sync.Mutex
	debounceTimer *time.Timer

	reloadChan chan struct{}
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewConfigWatcher creates a watcher for the given configuration file.
func NewConfigWatcher(path string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryDaemon, "creating file watcher")
	}

	return &ConfigWatcher{
		path:          path,
		daemon:        daemon,
		watcher:       watcher,
		debounceDelay: defaultDebounceDelay,
		reloadChan:    make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}, nil
}

// Start begins watching for changes.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return cserrors.WrapError(err, cserrors.CategoryDaemon, "watching config directory").
			WithContext(logfields.KeyPath, dir)
	}

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	slog.Info("Watching configuration file", logfields.Path(w.path))
	return nil
}

// Stop ends watching and waits for the loops to exit.
func (w *ConfigWatcher) Stop(ctx context.Context) error {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		return cserrors.WrapError(err, cserrors.CategoryDaemon, "closing file watcher")
	}

	select {
	case <-w.doneChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	defer close(w.doneChan)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// scheduleReload coalesces bursts of file events into a single reload.
func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

func (w *ConfigWatcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-w.reloadChan:
			w.performReload(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *ConfigWatcher) performReload(ctx context.Context) {
	cfg, err := config.Load(w.path)
	if err != nil {
		slog.Error("Ignoring invalid configuration change",
			logfields.Path(w.path),
			logfields.Error(err))
		return
	}

	if err := w.daemon.Reload(ctx, cfg); err != nil {
		slog.Error("Failed to apply configuration change", logfields.Error(err))
	}
}
