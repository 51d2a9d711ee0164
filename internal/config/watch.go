// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher reloads a config file when it changes on disk.
//
// The parent directory is watched rather than the file itself, because most
// editors save by writing a temp file and renaming it over the original.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(*Config, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path. onChange is called from the watcher goroutine
// with the reloaded config, or with the load error if the new file is
// invalid. Close the returned Watcher to stop.
func Watch(path string, onChange func(*Config, error)) (*Watcher, error) {
	return WatchWithDebounce(path, DefaultDebounce, onChange)
}

// WatchWithDebounce is Watch with an explicit debounce interval.
func WatchWithDebounce(path string, debounce time.Duration, onChange func(*Config, error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     abs,
		watcher:  fsw,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}

	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	cfg, err := LoadFromPath(w.path)
	if w.ctx.Err() != nil {
		return
	}
	w.onChange(cfg, err)
}
