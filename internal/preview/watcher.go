package preview

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/logfields"
)

// DefaultQuiescence is how long the watched trees must stay quiet before a
// change is reported.
const DefaultQuiescence = time.Second

// Watcher watches directory trees and reports debounced changes on Events.
// Every burst of filesystem events produces a single signal once no event
// has arrived for the quiescence window.
type Watcher struct {
	fs         *fsnotify.Watcher
	quiescence time.Duration
	events     chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer

	closeOnce sync.Once
}

// NewWatcher starts watching dirs recursively. Directories created later
// are picked up as they appear.
func NewWatcher(dirs []string, quiescence time.Duration) (*Watcher, error) {
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create file watcher").Build()
	}
	for _, dir := range dirs {
		if err := addDirsRecursive(fw, dir); err != nil {
			_ = fw.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", dir).
				Build()
		}
	}

	w := &Watcher{
		fs:         fw,
		quiescence: quiescence,
		events:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers one value per debounced burst of changes. A pending signal
// that has not been received yet absorbs later ones.
func (w *Watcher) Events() <-chan struct{} { return w.events }

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	w.trigger()
}

// trigger restarts the quiescence timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quiescence, func() {
		select {
		case <-w.done:
		case w.events <- struct{}{}:
		default:
		}
	})
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && vcsDirs[d.Name()] {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// vcsDirs are never watched. Other hidden directories are.
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Editor temp, lock and swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return vcsDirs[base] || base == ".DS_Store" || base == "Thumbs.db" || base == "4913"
}
