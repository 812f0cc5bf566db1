package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceWindow = 250 * time.Millisecond

// Reloadable is a store that can re-read its backing file
type Reloadable interface {
	Reload(ctx context.Context) error
}

// ReloadFunc adapts a function to Reloadable
type ReloadFunc func(ctx context.Context) error

// Reload calls f
func (f ReloadFunc) Reload(ctx context.Context) error { return f(ctx) }

// Reloader watches the state directory and re-reads stores edited by another process
type Reloader struct {
	dir     string
	targets map[string][]Reloadable // Base file name prefix -> stores
	logger  *zap.Logger
}

// NewReloader creates a reloader for dir
func NewReloader(dir string, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{
		dir:     filepath.Clean(dir),
		targets: make(map[string][]Reloadable),
		logger:  logger,
	}
}

// Watch registers stores to reload when a file whose name starts with prefix changes.
// Prefix matching catches SQLite journal and WAL side files.
func (r *Reloader) Watch(prefix string, stores ...Reloadable) {
	r.targets[prefix] = append(r.targets[prefix], stores...)
}

// Run watches until ctx is done
func (r *Reloader) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch state dir: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}

	// One debounce timer per prefix
	timers := make(map[string]*time.Timer)
	fire := make(chan string, len(r.targets))
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Dir(filepath.Clean(event.Name)) != r.dir {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			prefix, ok := r.match(filepath.Base(event.Name))
			if !ok {
				continue
			}
			if t, exists := timers[prefix]; exists {
				t.Reset(debounceWindow)
				continue
			}
			timers[prefix] = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- prefix:
				default:
				}
			})
		case prefix := <-fire:
			r.reload(ctx, prefix)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("state watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) match(name string) (string, bool) {
	for prefix := range r.targets {
		if strings.HasPrefix(name, prefix) {
			return prefix, true
		}
	}
	return "", false
}

func (r *Reloader) reload(ctx context.Context, prefix string) {
	r.logger.Debug("state file changed", zap.String("file", prefix))
	for _, s := range r.targets[prefix] {
		if err := s.Reload(ctx); err != nil {
			r.logger.Warn("reload failed", zap.String("file", prefix), zap.Error(err))
		}
	}
}
