package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/content"
)

// rebuildDebounce coalesces bursts of file events into one rebuild.
const rebuildDebounce = 300 * time.Millisecond

// Watch runs in development mode only. It watches the content tree and, on
// any change, rebuilds the whole index and swaps it into the handle. There is
// no partial re-indexing: content sets are small enough that a full rebuild
// is cheaper than tracking deltas.
//
// New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, handle *Handle, mode content.Mode, root string, sources map[content.Kind][]content.Source, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(rebuildDebounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(rebuildDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rebuildCh:
			start := time.Now()
			idx, buildErr := Build(ctx, mode, sources)
			if buildErr != nil {
				logger.Warn("watcher: rebuild failed", slog.String("error", buildErr.Error()))
				continue
			}
			handle.Swap(idx)
			logger.Info("watcher: index rebuilt",
				slog.Duration("elapsed", time.Since(start)),
				slog.Int("posts", len(idx.Entries(content.KindPost))),
				slog.Int("notes", len(idx.Entries(content.KindNote))),
				slog.Int("journals", len(idx.Entries(content.KindJournal))))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRebuild()
					continue
				}
			}

			if !contentFile(ev.Name) {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			scheduleRebuild()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func contentFile(path string) bool {
	switch filepath.Ext(path) {
	case ".md", ".html":
		return true
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
