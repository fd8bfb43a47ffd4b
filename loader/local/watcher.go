package local

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hostplane/pluginfw/logging"
)

// Watcher is the expansion's DirWatcher (SPEC_FULL section 4.4): it wraps a
// Loader's registered directories with an fsnotify feed and invokes a
// caller-supplied callback — typically "run another Scan" — when something
// in one of those directories changes. It never calls Scan itself and never
// touches the context lock; the caller's callback owns that decision. A
// burst of events within the debounce window collapses into one callback
// call.
type Watcher struct {
	loader   *Loader
	debounce time.Duration
	logger   logging.Logger
	onChange func()

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// DefaultDebounce is the quiet period used when WithDebounce is not
// supplied.
const DefaultDebounce = 200 * time.Millisecond

// WatcherOption configures a Watcher at construction time.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger overrides the default no-op logger.
func WithWatcherLogger(l logging.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher returns a Watcher over ld's registered directories. Start
// watches the directories registered at the time Start is called;
// directories registered later are not picked up without calling Start
// again.
func NewWatcher(ld *Loader, onChange func(), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		loader:   ld,
		debounce: DefaultDebounce,
		logger:   logging.NewNoOp(),
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the fsnotify watches are
// established; event handling runs on its own goroutine until ctx is done
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, dir := range w.loader.Dirs() {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return err
		}
		w.logger.WithFields(logging.Fields{"path": dir}).Debug("local watcher: watching directory")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.watcher = fw
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx)
	return nil
}

// Stop tears down the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&relevant == 0 {
				continue
			}
			name := filepath.Base(evt.Name)
			if name == "" || name[0] == '.' {
				continue
			}
			w.logger.WithFields(logging.Fields{"event": evt.String()}).Debug("local watcher: change detected")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("local watcher: %v", err)
		}
	}
}
