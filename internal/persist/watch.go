package persist

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

// DefaultDebounce coalesces the burst of events one atomic save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to store files made by other processes, such as
// the CLI editing hosts while a server is running. It watches the parent
// directories because atomic saves replace the file.
type Watcher struct {
	fs       *fsnotify.Watcher
	log      pslog.Logger
	debounce time.Duration

	mu     sync.Mutex
	files  map[string][]func()
	dirs   map[string]struct{}
	timers map[string]*time.Timer
}

// NewWatcher constructs a watcher. debounce <= 0 selects DefaultDebounce.
func NewWatcher(logger pslog.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fsw,
		log:      logger,
		debounce: debounce,
		files:    make(map[string][]func()),
		dirs:     make(map[string]struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch calls onChange after path is written, replaced or removed.
func (w *Watcher) Watch(path string, onChange func()) error {
	if onChange == nil {
		return errors.New("watch callback is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = append(w.files[abs], onChange)
	w.log.Debug("store watch", "path", abs)
	return nil
}

// Run dispatches change callbacks until ctx is done or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.schedule(filepath.Clean(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("store watch error", "err", err)
		}
	}
}

// Close stops the watcher and pending callbacks.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	callbacks := w.files[path]
	if len(callbacks) == 0 {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.log.Debug("store changed", "path", path)
		for _, fn := range callbacks {
			fn()
		}
	})
}
