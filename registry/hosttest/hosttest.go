// Package hosttest is a reference, in-memory registry.HostRegistry, used by
// the scanner package's own tests and available to third-party loader
// authors testing against the loader SPI (SPEC_FULL section 4.5). It is not
// intended for production hosts.
package hosttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hostplane/pluginfw/loader"
	"github.com/hostplane/pluginfw/plugin"
	"github.com/hostplane/pluginfw/registry"
)

// InstallFunc lets a test fail InstallPlugin for a specific identifier.
type InstallFunc func(ctx context.Context, info *plugin.Info, l loader.Loader) error

// GetPluginsInfoFunc lets a test fail the Phase A snapshot read, e.g. to
// exercise spec section 7's "a RESOURCE error during Phase A aborts the
// entire scan before any loader is consulted."
type GetPluginsInfoFunc func(ctx context.Context) ([]*plugin.Info, error)

// Registry is an in-memory registry.HostRegistry. Construct with New and
// seed it with Seed before running a scan.
type Registry struct {
	mu sync.Mutex

	plugins          map[string]*plugin.Info
	states           map[string]registry.State
	loadersToPlugins map[loader.Loader]map[string]bool

	// Calls records every call in invocation order, e.g. "stop_plugins",
	// "uninstall_plugin:p", "install_plugin:p@2.0", "start_plugin:p" —
	// used to assert the call-order scenarios from spec section 8 (S3,
	// S5).
	Calls []string

	// InstallHook, if set, replaces the default always-succeeds
	// InstallPlugin behavior.
	InstallHook InstallFunc

	// GetPluginsInfoHook, if set, replaces the default always-succeeds
	// GetPluginsInfo behavior.
	GetPluginsInfoHook GetPluginsInfoFunc
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		plugins:          make(map[string]*plugin.Info),
		states:           make(map[string]registry.State),
		loadersToPlugins: make(map[loader.Loader]map[string]bool),
	}
}

// Seed installs info directly (bypassing InstallPlugin bookkeeping) at the
// given state, as if a prior scan had already run.
func (r *Registry) Seed(info *plugin.Info, state registry.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[info.Identifier] = info
	r.states[info.Identifier] = state
}

func (r *Registry) GetPluginsInfo(ctx context.Context) ([]*plugin.Info, error) {
	r.mu.Lock()
	hook := r.GetPluginsInfoHook
	r.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*plugin.Info, 0, len(r.plugins))
	for _, info := range r.plugins {
		out = append(out, info)
	}
	return out, nil
}

func (r *Registry) InstalledPlugin(_ context.Context, id string) (*plugin.Info, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.plugins[id]
	return info, ok, nil
}

func (r *Registry) GetPluginState(_ context.Context, id string) (registry.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[id]
	if !ok {
		return registry.Uninstalled, nil
	}
	return state, nil
}

func (r *Registry) InstallPlugin(ctx context.Context, info *plugin.Info, l loader.Loader) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, fmt.Sprintf("install_plugin:%s@%s", info.Identifier, info.Version))
	hook := r.InstallHook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, info, l); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[info.Identifier] = info.Acquire()
	r.states[info.Identifier] = registry.Installed
	if r.loadersToPlugins[l] == nil {
		r.loadersToPlugins[l] = make(map[string]bool)
	}
	r.loadersToPlugins[l][info.Identifier] = true
	return nil
}

func (r *Registry) UninstallPlugin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "uninstall_plugin:"+id)
	if info, ok := r.plugins[id]; ok {
		info.Release()
	}
	delete(r.plugins, id)
	delete(r.states, id)
	for _, ids := range r.loadersToPlugins {
		delete(ids, id)
	}
	return nil
}

func (r *Registry) StopPlugins(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "stop_plugins")
	for id, state := range r.states {
		if state == registry.Starting || state == registry.Active {
			r.states[id] = registry.Installed
		}
	}
	return nil
}

func (r *Registry) StartPlugin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "start_plugin:"+id)
	if _, ok := r.plugins[id]; !ok {
		return fmt.Errorf("hosttest: start_plugin: %s not installed", id)
	}
	r.states[id] = registry.Active
	return nil
}

func (r *Registry) ReserveSlot(_ context.Context, l loader.Loader, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadersToPlugins[l] == nil {
		r.loadersToPlugins[l] = make(map[string]bool)
	}
	r.loadersToPlugins[l][id] = true
}

func (r *Registry) ReleaseSlot(_ context.Context, l loader.Loader, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ids, ok := r.loadersToPlugins[l]; ok {
		delete(ids, id)
	}
}

// LoaderPlugins returns the set of identifiers installed via l, mirroring
// the registry's loaders_to_plugins map (spec section 3).
func (r *Registry) LoaderPlugins(l loader.Loader) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.loadersToPlugins[l]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// SetState forces id's state directly, for tests constructing a pre-scan
// STARTING/ACTIVE snapshot (spec section 8, Phase A).
func (r *Registry) SetState(id string, state registry.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[id] = state
}
