package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/types"
)

// WatchFile follows a snapshot file that other processes write with SaveFile.
// Each time the file changes the resume is reloaded and a version event is
// published for every section whose current version advanced. The watcher is
// registered before WatchFile returns; the returned channel receives the
// result once ctx is done.
func (m *Memory) WatchFile(ctx context.Context, path string) (<-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// SaveFile renames a temp file into place, so watch the directory
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer watcher.Close() //nolint:errcheck
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				done <- nil
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					done <- nil
					return
				}
				log.Printf("[store] watch error on %s: %v", path, err)
			case ev, ok := <-watcher.Events:
				if !ok {
					done <- nil
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if err := m.reload(ctx, path); err != nil {
					log.Printf("[store] ignoring change to %s: %v", path, err)
				}
			}
		}
	}()
	return done, nil
}

// reload imports the snapshot at path and announces advanced versions
func (m *Memory) reload(ctx context.Context, path string) error {
	snap, err := readSnapshot(path)
	if err != nil {
		return err
	}
	if snap.Document == nil {
		return fmt.Errorf("%w: snapshot has no document", ErrInvalidInput)
	}
	id := snap.Document.ID

	before := make(map[types.SectionKey]int)
	m.mu.RLock()
	if e, ok := m.docs[id]; ok {
		for key, h := range e.history {
			before[key] = h.CurrentVersion()
		}
	}
	m.mu.RUnlock()

	if err := m.Import(snap); err != nil {
		return err
	}
	for key, h := range snap.History {
		if v := h.CurrentVersion(); v > before[key] {
			m.publish(ctx, id, key, v, notify.ReasonExternal)
		}
	}
	return nil
}
