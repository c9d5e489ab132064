package studiostub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"

	"github.com/starford/coursemover/internal/checksum"
	"github.com/starford/coursemover/internal/models"
	"github.com/starford/coursemover/internal/outline"
)

// reloadDelay debounces bursts of writes to the fixture.
const reloadDelay = 100 * time.Millisecond

// Fixture is an outline JSON file on disk.
type Fixture struct {
	path string

	mu      sync.Mutex
	lastSum string
}

// NewFixture creates a Fixture for path.
func NewFixture(path string) (*Fixture, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("studiostub: resolve fixture: %w", err)
	}
	return &Fixture{path: abs}, nil
}

// Path returns the absolute fixture path.
func (f *Fixture) Path() string {
	return f.path
}

// Load reads and validates the fixture. The outline must build into a tree.
func (f *Fixture) Load() (*models.XBlockInfo, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("studiostub: read fixture: %w", err)
	}
	root, err := decode(data)
	if err != nil {
		return nil, err
	}
	f.remember(data)
	return root, nil
}

func decode(data []byte) (*models.XBlockInfo, error) {
	var root models.XBlockInfo
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("studiostub: decode fixture: %w", err)
	}
	if _, err := outline.Build(&root); err != nil {
		return nil, fmt.Errorf("studiostub: fixture: %w", err)
	}
	return &root, nil
}

// Save atomically writes root: tmp file → fsync → rename.
func (f *Fixture) Save(root *models.XBlockInfo) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("studiostub: encode fixture: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".coursemover-tmp-*")
	if err != nil {
		return fmt.Errorf("studiostub: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("studiostub: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("studiostub: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("studiostub: close temp: %w", err)
	}
	// Remember first so the watcher skips our own write.
	f.remember(data)
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("studiostub: rename: %w", err)
	}
	success = true
	return nil
}

func (f *Fixture) remember(data []byte) {
	f.mu.Lock()
	f.lastSum = checksum.Sum(data)
	f.mu.Unlock()
}

// changed reports whether data differs from the last loaded or saved content.
func (f *Fixture) changed(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := checksum.Sum(data)
	if sum == f.lastSum {
		return false
	}
	f.lastSum = sum
	return true
}

// Watch reloads the fixture into store whenever the file changes, until ctx is
// cancelled. The directory is watched so editors that replace the file by
// rename are picked up. Invalid content is logged and the store is left
// untouched. cb, if non-nil, runs after each reload.
func (f *Fixture) Watch(ctx context.Context, store *Store, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("fixture", f.path))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			f.reload(store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (f *Fixture) reload(store *Store, logger *slog.Logger, cb func()) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		logger.Warn("watcher: read failed", slog.String("fixture", f.path), slog.String("error", err.Error()))
		return
	}
	if !f.changed(data) {
		return
	}
	root, err := decode(data)
	if err != nil {
		logger.Warn("watcher: reload failed", slog.String("fixture", f.path), slog.String("error", err.Error()))
		return
	}
	store.Replace(root)
	logger.Info("watcher: fixture reloaded", slog.String("fixture", f.path))
	if cb != nil {
		cb()
	}
}
