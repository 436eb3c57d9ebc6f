// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports debounced changes to a single file.
//
// The parent directory is watched rather than the file itself, because
// editors and atomic writers replace files by rename, which drops a watch
// placed on the old inode.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/logging"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 250 * time.Millisecond

// FileWatcher watches one file and signals on Changes after each burst of
// writes settles.
type FileWatcher struct {
	path     string
	base     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	changes   chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts watching path. The file need not exist yet, but its directory
// must.
func New(path string, debounce time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	fw := &FileWatcher{
		path:     abs,
		base:     filepath.Base(abs),
		debounce: debounce,
		watcher:  watcher,
		logger:   logging.OrNop(logger).Named("watch"),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	fw.wg.Add(1)
	go fw.processEvents()
	return fw, nil
}

// Path returns the watched file.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Changes delivers one signal per settled burst. Signals coalesce if the
// consumer is slow. The channel is closed by Close.
func (fw *FileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// Close stops watching and waits for the event goroutine to exit.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
		fw.wg.Wait()
		close(fw.changes)
	})
	return err
}

// processEvents filters events to the watched file and debounces them.
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fw.base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			fw.logger.Debug("file changed", zap.String("path", fw.path))
			select {
			case fw.changes <- struct{}{}:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.String("path", fw.path), zap.Error(err))
		}
	}
}
