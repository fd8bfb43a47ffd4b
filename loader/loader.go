// Package loader defines the pluggable discovery SPI (spec section 4.1):
// any source capable of producing plugin.Info values — filesystem
// directories, archives, anything local — implements Loader and is
// registered with a scanner.Scanner.
package loader

import (
	"context"

	"github.com/hostplane/pluginfw/plugin"
)

// Loader is an abstract discovery source. Scan is mandatory; a Loader may
// additionally implement Releaser if it wants to reclaim the exact array it
// returned (spec section 4.1).
//
// A nil error from Scan with a nil slice is a valid "nothing found" result.
// A non-nil error means "this loader could not scan" — the scan engine
// logs it and proceeds with other loaders; it is never fatal to the overall
// Scan call (spec section 4.2, "a loader returning null is logged and
// skipped").
//
// Within a single returned slice, the Loader itself must already apply
// highest-version-wins so the scan engine sees at most one entry per
// identifier from any one Loader; ReconcileVersionWins below is the shared
// helper every Loader implementation in this module uses for that.
type Loader interface {
	Scan(ctx context.Context) ([]*plugin.Info, error)
}

// Releaser is the optional release hook from spec section 4.1. If a Loader
// implements it, the scan engine calls ReleasePlugins with the exact slice
// Scan returned, and the Loader becomes responsible for releasing every
// plugin.Info in it. If a Loader does not implement Releaser, the scan
// engine releases each plugin.Info itself.
type Releaser interface {
	ReleasePlugins(ctx context.Context, infos []*plugin.Info)
}

// ReleasePlugins calls l's Releaser hook if it implements one, otherwise
// releases every Info in infos individually. scanner.Scanner uses this so
// the "optional release hook, default
// per-entry release" rule from spec section 4.1 lives in one place.
func ReleasePlugins(ctx context.Context, l Loader, infos []*plugin.Info) {
	if r, ok := l.(Releaser); ok {
		r.ReleasePlugins(ctx, infos)
		return
	}
	for _, info := range infos {
		info.Release()
	}
}

// ReconcileVersionWins inserts info into avail under info.Identifier,
// applying the highest-version-wins rule from spec sections 3 and 4.2: if
// no entry exists yet, info is kept; if an entry exists with a lower
// version, it is released and replaced; otherwise info itself is released
// and discarded. avail is keyed by identifier.
func ReconcileVersionWins(avail map[string]*plugin.Info, info *plugin.Info) {
	existing, ok := avail[info.Identifier]
	if !ok {
		avail[info.Identifier] = info
		return
	}
	if plugin.GreaterThan(info.Version, existing.Version) {
		existing.Release()
		avail[info.Identifier] = info
		return
	}
	info.Release()
}
