// Package local implements loader.Loader over an ordered set of filesystem
// directories (spec section 4.3).
package local

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/hostplane/pluginfw/descriptor"
	"github.com/hostplane/pluginfw/loader"
	"github.com/hostplane/pluginfw/logging"
	"github.com/hostplane/pluginfw/plugin"
	"github.com/hostplane/pluginfw/status"
)

// Loader holds an ordered, duplicate-free set of directories (byte-equal
// comparison) and scans their immediate children for descriptors. It
// implements loader.Loader; it does not implement loader.Releaser, so the
// scan engine releases each returned plugin.Info itself (spec section 4.1's
// default contract).
type Loader struct {
	mu     sync.Mutex
	dirs   []string
	index  map[string]bool // mirrors dirs for O(1) membership checks
	parser descriptor.Parser
	logger logging.Logger
}

// Option configures a Loader at construction time.
type Option func(*Loader)

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New returns a Loader with no registered directories.
func New(parser descriptor.Parser, opts ...Option) *Loader {
	ld := &Loader{
		index:  make(map[string]bool),
		parser: parser,
		logger: logging.NewNoOp(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// RegisterDir adds path to the directory set. Registering an
// already-present path is a no-op (spec section 4.3).
func (l *Loader) RegisterDir(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index[path] {
		return nil
	}
	l.index[path] = true
	l.dirs = append(l.dirs, path)
	return nil
}

// UnregisterDir removes path from the directory set. Unregistering an
// absent path is a no-op.
func (l *Loader) UnregisterDir(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.index[path] {
		return
	}
	delete(l.index, path)
	for i, d := range l.dirs {
		if d == path {
			l.dirs = append(l.dirs[:i], l.dirs[i+1:]...)
			break
		}
	}
}

// UnregisterAll empties the directory set. Spec section 9 flags the
// source's equivalent routine as ambiguous (it frees each path but leaves
// dangling list nodes); this port picks the documented behavior — the set
// is simply empty afterward.
func (l *Loader) UnregisterAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs = nil
	l.index = make(map[string]bool)
}

// Dirs returns a snapshot of the registered directories, in registration
// order.
func (l *Loader) Dirs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.dirs))
	copy(out, l.dirs)
	return out
}

// Scan implements loader.Loader. It enumerates the immediate children of
// every registered directory, in registration order; within one directory,
// children are visited in the order the OS returns them (spec section 5 —
// not sorted by this module). Hidden entries (empty name, or a name
// starting with '.') are skipped. A directory that fails to open, or that
// fails partway through enumeration, is logged and skipped; remaining
// directories are still scanned. A descriptor that fails to parse is
// logged and skipped; remaining entries are still parsed. Entries are
// reconciled into the result by loader.ReconcileVersionWins so at most one
// plugin.Info per identifier survives.
func (l *Loader) Scan(ctx context.Context) ([]*plugin.Info, error) {
	dirs := l.Dirs()
	avail := make(map[string]*plugin.Info)

	for _, dir := range dirs {
		f, err := os.Open(dir)
		if err != nil {
			l.logger.WithFields(logging.Fields{"path": dir}).Error("local loader: open directory: %v", err)
			continue
		}
		entries, err := f.ReadDir(-1)
		f.Close()
		if err != nil {
			l.logger.WithFields(logging.Fields{"path": dir}).Error("local loader: read directory: %v", err)
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if name == "" || name[0] == '.' {
				continue
			}

			path := filepath.Join(dir, name)
			info, err := l.parser.Parse(ctx, path)
			if err != nil {
				l.logger.WithFields(logging.Fields{"path": path}).Error(
					"local loader: parse descriptor: %v", status.Malformedf(path, err))
				continue
			}

			loader.ReconcileVersionWins(avail, info)
		}
	}

	result := make([]*plugin.Info, 0, len(avail))
	for _, info := range avail {
		result = append(result, info)
	}
	return result, nil
}

// Loader deliberately does not implement loader.Releaser: it relies on the
// scan engine's default per-entry release (spec section 4.1).
