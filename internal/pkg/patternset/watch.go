package patternset

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a pattern file whenever it changes and hands the new
// pattern list to a callback.
//
// The parent directory is watched rather than the file itself so that editors
// which save by renaming a temporary file over the original keep triggering
// reloads.
type Watcher struct {
	path     string
	onChange func([]string)
	debounce time.Duration

	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
	running   bool

	reloads atomic.Uint64
	errors  atomic.Uint64
}

// NewWatcher creates a watcher for path. onChange is called from the watcher
// goroutine, never concurrently with itself.
func NewWatcher(path string, onChange func([]string)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: constants.WatchDebounce,
		stopChan: make(chan struct{}),
	}
}

// Watch starts a watcher for path that is stopped and released when ctx is done.
func Watch(ctx context.Context, path string, onChange func([]string)) (*Watcher, error) {
	w := NewWatcher(path, onChange)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		if err := w.Stop(); err != nil {
			logger.Warn("failed to stop pattern file watcher", "error", err)
		}
	}()
	return w, nil
}

// Start begins watching the pattern file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		if cerr := fsWatcher.Close(); cerr != nil {
			logger.Error("failed to close fsnotify watcher", "error", cerr)
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.fsWatcher = fsWatcher
	w.running = true

	w.wg.Add(1)
	go w.watchLoop(ctx)

	logger.Info("started pattern file watcher", "path", w.path)
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	targetPath, _ := filepath.Abs(w.path)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// Only react to our target file
			eventPath, _ := filepath.Abs(event.Name)
			if eventPath != targetPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.reload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("fsnotify error", "error", err)
			w.errors.Add(1)
		}
	}
}

// reload loads the file and passes the patterns on. A file that fails to load
// is logged and otherwise ignored, so the caller keeps its previous patterns.
func (w *Watcher) reload() {
	patterns, err := Load(w.path)
	if err != nil {
		w.errors.Add(1)
		logger.Warn("failed to reload pattern file", "path", w.path, "error", err)
		return
	}
	w.reloads.Add(1)
	logger.Debug("pattern file changed", "path", w.path, "pattern_count", len(patterns))
	w.onChange(patterns)
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	if err := w.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}

	logger.Info("stopped pattern file watcher",
		"path", w.path,
		"reloads", w.reloads.Load())
	return nil
}

// WatcherStats contains watcher statistics.
type WatcherStats struct {
	Path    string
	Reloads uint64
	Errors  uint64
	Running bool
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WatcherStats{
		Path:    w.path,
		Reloads: w.reloads.Load(),
		Errors:  w.errors.Load(),
		Running: w.running,
	}
}
