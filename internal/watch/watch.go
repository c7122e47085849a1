// Package watch reports image files that appear in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/DenseView/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is reported
const DefaultSettle = 250 * time.Millisecond

// Watcher emits paths of new or rewritten files whose extension matches
type Watcher struct {
	dir    string
	exts   map[string]struct{}
	settle time.Duration
	fsw    *fsnotify.Watcher
	logger *logger.Logger

	files chan string
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New starts watching dir. Extensions are matched case-insensitively; an empty list matches every file.
func New(dir string, extensions []string, log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		if cerr := fsw.Close(); cerr != nil {
			log.Warn("failed to close watcher: %v", cerr)
		}
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &Watcher{
		dir:     dir,
		exts:    exts,
		settle:  DefaultSettle,
		fsw:     fsw,
		logger:  log,
		files:   make(chan string, 16),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// SetSettle changes the quiet period; call before Run
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Files delivers settled paths
func (w *Watcher) Files() <-chan string {
	return w.files
}

// Matches reports whether path has a watched extension
func (w *Watcher) Matches(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.done:
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnWithFields("Watcher error", []logger.Field{logger.Error(err), logger.F("dir", w.dir)})
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.Matches(event.Name) {
		w.logger.Debug("Ignoring %s", event.Name)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// restart the quiet period while the file is still being written
	if timer, ok := w.pending[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() { w.emit(path, timer) })
	w.pending[path] = timer
}

// emit reports path unless timer was superseded by a later event for the same path
func (w *Watcher) emit(path string, timer *time.Timer) {
	w.mu.Lock()
	if w.pending[path] != timer {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	select {
	case w.files <- path:
		w.logger.Debug("New file %s", path)
	case <-w.done:
	}
}

// Close stops watching and pending notifications
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)

		w.mu.Lock()
		for path, timer := range w.pending {
			timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		err = w.fsw.Close()
	})
	return err
}
