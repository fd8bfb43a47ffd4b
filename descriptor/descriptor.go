// Package descriptor declares the interface between this module and the
// descriptor parser, which spec section 1 names as an external collaborator:
// "the descriptor parser that turns a descriptor document into an in-memory
// plug-in record" is out of scope for the core, but the core depends on its
// contract (spec section 6).
package descriptor

import (
	"context"

	"github.com/hostplane/pluginfw/plugin"
)

// Parser loads a plugin.Info from a descriptor found at path. The returned
// Info has refcount 1, owned by the caller (spec section 3, "PluginInfo
// created by descriptor parser -> handed to scan engine with refcount 1").
//
// The core treats the returned Info as opaque except for Identifier,
// Version, and Path (spec section 6). Parse failures should be surfaced as
// plain errors; the local loader wraps them as status.Malformed.
type Parser interface {
	Parse(ctx context.Context, path string) (*plugin.Info, error)
}

// ParserFunc adapts a function to a Parser.
type ParserFunc func(ctx context.Context, path string) (*plugin.Info, error)

func (f ParserFunc) Parse(ctx context.Context, path string) (*plugin.Info, error) {
	return f(ctx, path)
}
