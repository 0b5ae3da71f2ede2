package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"portfolio-runner/src/bootstrap"
	"portfolio-runner/src/interfaces"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"

	"github.com/fsnotify/fsnotify"
)

// -----------------------------------------------------------------------------
// FileWatcher - restarts the dev server when watched files change
// -----------------------------------------------------------------------------

type FileWatcher struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Restarter interfaces.IRestarter

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]time.Time
	debounceDur time.Duration
}

// -----------------------------------------------------------------------------

func NewFileWatcher(cfg *models.MConfig, log *logger.Logger, restarter interfaces.IRestarter) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		Config:      cfg,
		Logger:      log,
		Restarter:   restarter,
		watcher:     w,
		debounceMap: make(map[string]time.Time),
		debounceDur: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
	}, nil
}

// -----------------------------------------------------------------------------

// Start registers the watch paths and runs the event loop until ctx is
// cancelled. Non-blocking.
func (fw *FileWatcher) Start(ctx context.Context, wg *sync.WaitGroup) error {
	for _, p := range fw.watchPaths() {
		if err := fw.watcher.Add(p); err != nil {
			fw.Logger.Warning("Failed to watch %s: %v", p, err)
			continue
		}
		fw.Logger.Info("Watching %s for changes", p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer fw.watcher.Close()
		fw.loop(ctx)
	}()

	return nil
}

// -----------------------------------------------------------------------------

// watchPaths anchors the configured paths on the app work dir, where the
// scaffold creates them. A raw relative path would resolve against the
// runner's own cwd instead.
func (fw *FileWatcher) watchPaths() []string {
	paths := fw.Config.Watch.Paths
	if len(paths) == 0 {
		paths = []string{fw.Config.App.TemplatesDir}
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		resolved = append(resolved, bootstrap.ResolvePath(fw.Config.App.WorkDir, p))
	}
	return resolved
}

// -----------------------------------------------------------------------------

func (fw *FileWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.Logger.Warning("Watcher error: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

// handleEvent filters and debounces a single fsnotify event, triggering a
// restart when it survives both.
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) {
		return
	}
	if !fw.relevant(event.Name) {
		return
	}
	if !fw.debounce(event.Name) {
		return
	}

	fw.Logger.Info("Change detected: %s", event.Name)
	if err := fw.Restarter.Restart("file change: " + filepath.Base(event.Name)); err != nil {
		fw.Logger.Debug("Restart skipped: %v", err)
	}
}

// -----------------------------------------------------------------------------

// relevant drops editor temp files and hidden files
func (fw *FileWatcher) relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return true
}

// -----------------------------------------------------------------------------

// debounce suppresses rapid successive events for the same path
func (fw *FileWatcher) debounce(name string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	if last, ok := fw.debounceMap[name]; ok && now.Sub(last) < fw.debounceDur {
		return false
	}
	fw.debounceMap[name] = now
	return true
}
