package plugin

import "sync/atomic"

// ExtensionPoint describes an extension point a plug-in declares in its
// descriptor. The core treats its contents as opaque.
type ExtensionPoint struct {
	ID   string
	Name string
}

// Extension describes an extension a plug-in contributes to some extension
// point, possibly in another plug-in. The core treats its contents as
// opaque.
type Extension struct {
	Point string
	ID    string
}

// Info is the immutable-after-parse record describing one plug-in,
// corresponding to spec section 3's PluginInfo. Every field other than the
// refcount is set once, by the descriptor parser, and never mutated by the
// loader SPI or the scan engine.
//
// Ownership is shared between the scan-engine-local working set and the
// host registry via the refcount embedded here: this is the Go rendering of
// "a reference-counted handle supplied by the host" from spec section 3 —
// in a garbage-collected runtime the handle doesn't need a separate owner,
// it can be the value itself. Acquire/Release must balance: every Acquire
// has exactly one matching Release on every code path, including error
// paths (spec section 8, invariant 4).
type Info struct {
	Identifier string
	Version    *Version
	Path       string

	// Descriptor-only fields, opaque to the loader SPI and scan engine.
	Name            string
	Provider        string
	Imports         []string
	ExtensionPoints []ExtensionPoint
	Extensions      []Extension
	Runtime         string

	refs int32
}

// New returns an Info with refcount 1, as returned by a descriptor parser to
// its caller.
func New(identifier string, version *Version, path string) *Info {
	return &Info{
		Identifier: identifier,
		Version:    version,
		Path:       path,
		refs:       1,
	}
}

// Acquire increments the refcount and returns the same Info, so callers can
// write `held := info.Acquire()` at the point a new reference is taken.
func (i *Info) Acquire() *Info {
	atomic.AddInt32(&i.refs, 1)
	return i
}

// Release decrements the refcount. Every Acquire (including the implicit
// one from New) must be matched by exactly one Release.
func (i *Info) Release() {
	atomic.AddInt32(&i.refs, -1)
}

// RefCount returns the current refcount. Intended for tests asserting
// invariant 4 (refcount balance): a released-to-zero Info has no remaining
// owner, an installed Info should settle at exactly 1 (the host's own
// reference).
func (i *Info) RefCount() int32 {
	return atomic.LoadInt32(&i.refs)
}
