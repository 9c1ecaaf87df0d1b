// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/uirender"
)

// changeOps are the file operations that count as an asset change.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// AssetWatcher reports changes below an asset directory.
type AssetWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// WatchAssets watches dir and its subdirectories and calls onChange with the
// path of every file written, created, removed or renamed. onChange runs on
// the watcher's goroutine. Directories created later are watched too.
func WatchAssets(dir string, onChange func(path string)) (*AssetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("frame: create watcher: %w", err)
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("frame: watch %q: %w", dir, err)
	}

	a := &AssetWatcher{watcher: w, done: make(chan struct{})}
	a.wg.Add(1)
	go a.loop(onChange)
	uirender.Logger().Debug("frame: watching assets", "dir", dir)
	return a, nil
}

// WatchAssets requests a document reload whenever a file below dir changes.
func (c *Controller[E]) WatchAssets(dir string) (*AssetWatcher, error) {
	return WatchAssets(dir, func(string) { c.RequestReload() })
}

func (a *AssetWatcher) loop(onChange func(string)) {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&changeOps == 0 {
				continue
			}
			if ev.Has(fsnotify.Create) {
				a.addIfDir(ev.Name)
			}
			onChange(ev.Name)
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			uirender.Logger().Warn("frame: asset watcher error", "err", err)
		}
	}
}

func (a *AssetWatcher) addIfDir(path string) {
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return a.watcher.Add(p)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		uirender.Logger().Warn("frame: watch new directory failed", "path", path, "err", err)
	}
}

// Close stops watching. It is safe to call more than once.
func (a *AssetWatcher) Close() error {
	var err error
	a.once.Do(func() {
		close(a.done)
		err = a.watcher.Close()
		a.wg.Wait()
	})
	return err
}
