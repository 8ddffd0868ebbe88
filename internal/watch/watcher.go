// Package watch re-extracts source files as they change on disk.
package watch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"documentor/internal/extractor"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits for more events before
// reporting a batch.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives a batch of changed source files, sorted. Files that
// were removed are included.
type ChangeFunc func(ctx context.Context, paths []string) error

// Watcher reports changed source files under a set of roots.
type Watcher struct {
	fs       *fsnotify.Watcher
	skipDir  func(name string) bool
	debounce time.Duration
	log      logrus.FieldLogger
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New watches every directory under roots except those skipDir rejects.
func New(roots []string, skipDir func(name string) bool, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	w := &Watcher{fs: fw, skipDir: skipDir, debounce: DefaultDebounce, log: quiet}
	for _, opt := range opts {
		opt(w)
	}

	for _, root := range roots {
		if err := w.addTree(root, true); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree recursively adds all directories to the watcher.
func (w *Watcher) addTree(root string, isRoot bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !(isRoot && path == root) && w.skipDir != nil && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run delivers batches to onChange until ctx is done. An error from
// onChange is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(event.Name, false); err != nil {
						w.log.WithError(err).WithField("dir", event.Name).Warn("cannot watch new directory")
					}
					continue
				}
			}
			if extractor.LanguageForPath(event.Name) == "" || event.Op == fsnotify.Chmod {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]bool{}

			w.log.WithField("files", len(paths)).Debug("source files changed")
			if err := onChange(ctx, paths); err != nil {
				w.log.WithError(err).Error("failed to apply changes")
			}
		}
	}
}
