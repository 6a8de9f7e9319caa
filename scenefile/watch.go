// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/subscene"
)

// Watch calls fn with the reloaded scene every time the file at path is
// written, created or renamed into place. Parse errors are passed to fn
// and watching continues. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temporary file are seen.
func Watch(ctx context.Context, path string, fn func(*Scene, error)) error {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scenefile: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("scenefile: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != path {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			subscene.Logger().Debug("scenefile: change", "path", path, "op", e.Op.String())
			sc, err := Load(path)
			fn(sc, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			subscene.Logger().Warn("scenefile: watcher error", "err", err)
		}
	}
}
