package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch runs an fsnotify watcher over the vault root until ctx is
// cancelled, invalidating the read cache whenever a Markdown file changes
// outside this process. Directories created at runtime are added to the
// watch list.
//
// Watching is advisory: a vault without a running watcher still works,
// Refresh just has to be called explicitly before re-reading a note.
func (f *FS) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirsRecursive(watcher, f.root); err != nil {
		return err
	}

	f.logger.Debug("vault watcher started", "root", f.root)

	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("vault watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(watcher, event.Name); addErr != nil {
						f.logger.Warn("failed to watch new folder", "path", event.Name, "error", addErr)
					}
					continue
				}
			}

			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if rel, relErr := filepath.Rel(f.root, event.Name); relErr == nil {
				f.Invalidate(filepath.ToSlash(rel))
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("vault watcher error", "error", watchErr)
		}
	}
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
