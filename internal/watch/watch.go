// Package watch notifies when an input file changes, so the stream can
// be reprocessed. It watches the file's parent directory rather than
// the file itself, which survives the rename-and-replace save strategy
// editors use, and coalesces bursts of events into one notification.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by the watcher.
var (
	// ErrWatcherClosed indicates an operation on a closed watcher.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrPathNotExist indicates the watched file does not exist.
	ErrPathNotExist = errors.New("path does not exist")
)

// DefaultDebounce is the quiet period required before a change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Event reports that the watched file changed.
type Event struct {
	Path string
	Time time.Time
}

// Watcher reports changes to a single file.
type Watcher struct {
	mu     sync.Mutex
	closed bool

	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration

	events chan Event
	errs   chan error

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New starts watching the file at path. Close must be called to release
// the underlying watcher.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPathNotExist
		}
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		path:     absPath,
		debounce: DefaultDebounce,
		events:   make(chan Event, 16),
		errs:     make(chan error, 16),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the watched file's absolute path.
func (w *Watcher) Path() string { return w.path }

// Events returns the change notification channel. It is closed when the
// watcher is closed.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the error channel.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errs)
	return err
}

// processLoop converts raw directory events into debounced file change
// notifications.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	var pending *time.Timer
	var pendingCh <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if pending != nil {
				pending.Stop()
			}
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(fsEvent) {
				continue
			}
			if w.debounce <= 0 {
				w.sendEvent()
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				pendingCh = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(w.debounce)
			}

		case <-pendingCh:
			pending = nil
			pendingCh = nil
			w.sendEvent()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// relevant reports whether a directory event concerns the watched file.
func (w *Watcher) relevant(e fsnotify.Event) bool {
	if e.Name != w.path {
		return false
	}
	return e.Op.Has(fsnotify.Write) || e.Op.Has(fsnotify.Create) || e.Op.Has(fsnotify.Rename)
}

func (w *Watcher) sendEvent() {
	select {
	case w.events <- Event{Path: w.path, Time: time.Now()}:
	default:
	}
}
