package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets a burst of pointer updates settle before reading.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the snapshot in dir whenever CURRENT is switched to a new
// build and publishes it to h. It returns when ctx is done. A snapshot that fails to
// load is logged and the current one stays published.
func Watch(ctx context.Context, dir string, h *Handle, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log = log.With("index_dir", dir)
	log.Info("watching index directory")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != CurrentFile || !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reload(dir, h, log)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("index watcher error", "error", err)
		}
	}
}

func reload(dir string, h *Handle, log *slog.Logger) {
	snap, err := Load(dir)
	if err != nil {
		log.Error("reload index", "error", err)
		return
	}
	if cur := h.Current(); cur != nil && cur.Manifest.BuildID == snap.Manifest.BuildID {
		return
	}
	h.Publish(snap)
	log.Info("index reloaded", "build_id", snap.Manifest.BuildID, "rows", snap.Len())
}
