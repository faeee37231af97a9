package vlist

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher reloads a YAML config file when it changes on disk.
// onChange runs on the watcher's goroutine; hand the config to the UI loop
// (for Bubble Tea, send a ConfigReloadedMsg) rather than touching a list
// from it.
type ConfigWatcher struct {
	path     string
	onChange func(Config)
	watcher  *fsnotify.Watcher
	log      *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// WatchConfig starts watching path. The parent directory is watched so that
// editors replacing the file atomically still trigger a reload.
func WatchConfig(path string, onChange func(Config)) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, Wrap(KindResource, "config watcher", err)
	}

	cw := &ConfigWatcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		watcher:  w,
		log:      Logger(),
		done:     make(chan struct{}),
	}

	if err := w.Add(filepath.Dir(cw.path)); err != nil {
		w.Close()
		return nil, Wrap(KindResource, "config watcher", err)
	}

	go cw.loop()
	cw.log.Info("watching config", zap.String("path", cw.path))
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cw.debounceReload()
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Error("config watcher error", zap.Error(err))

		case <-cw.done:
			return
		}
	}
}

func (cw *ConfigWatcher) debounceReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(reloadDebounce, cw.reload)
}

func (cw *ConfigWatcher) reload() {
	cfg, err := LoadConfig(cw.path)
	if err != nil {
		cw.log.Error("config reload failed", errorFields(err)...)
		return
	}
	cw.log.Info("config reloaded", zap.String("path", cw.path))
	cw.onChange(cfg)
}

// Close stops watching.
func (cw *ConfigWatcher) Close() error {
	cw.mu.Lock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.mu.Unlock()

	select {
	case <-cw.done:
		return nil
	default:
		close(cw.done)
	}
	return cw.watcher.Close()
}
