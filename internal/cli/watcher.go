package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loomdi/loom/internal/generator"
)

// debounceWindow batches bursts of file events into one regeneration.
const debounceWindow = 250 * time.Millisecond

// Watcher reruns the generator whenever annotated source changes
type Watcher struct {
	generator *Generator
	config    Config
}

// NewWatcher creates a watcher that drives the given generator
func NewWatcher(g *Generator, config Config) *Watcher {
	return &Watcher{
		generator: g,
		config:    config,
	}
}

// Watch runs the generator once, then blocks regenerating on every source
// change until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := w.config.Dir
	if dir == "" {
		dir = "."
	}
	if err := addWatchTree(watcher, dir); err != nil {
		return err
	}

	if err := w.generator.Run(w.config); err != nil {
		w.generator.Reporter().ReportError(err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// new directories need their own watch
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() && !isHiddenDir(filepath.Base(event.Name)) {
					_ = addWatchTree(watcher, event.Name)
				}
			}
			if !w.shouldRegenerate(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.generator.Diagnostics().Warn("watch error: %v", err)

		case <-timerC:
			if err := w.generator.Run(w.config); err != nil {
				w.generator.Reporter().ReportError(err)
			}
		}
	}
}

// shouldRegenerate reports whether a file event warrants a new run. Writes
// to our own generated output must not retrigger the loop.
func (w *Watcher) shouldRegenerate(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".go") {
		return false
	}
	if base == generator.GeneratedFileName {
		return false
	}
	if strings.HasSuffix(base, "_test.go") {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	return true
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && isHiddenDir(info.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
