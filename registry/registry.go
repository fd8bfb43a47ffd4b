// Package registry declares the host registry interface consumed by the
// scan engine (spec section 6). The registry itself — install/uninstall,
// state tracking, reference counting of info records — is a host
// responsibility and out of scope for this module (spec section 1); this
// package only defines the contract.
package registry

import (
	"context"

	"github.com/hostplane/pluginfw/loader"
	"github.com/hostplane/pluginfw/plugin"
)

// State is a plug-in's lifecycle state as tracked by the host registry.
type State string

const (
	Uninstalled State = "UNINSTALLED"
	Installed   State = "INSTALLED"
	Resolved    State = "RESOLVED"
	Starting    State = "STARTING"
	Active      State = "ACTIVE"
	Stopping    State = "STOPPING"
)

// HostRegistry is the host-side collaborator the scan engine drives through
// install/upgrade/restart (spec section 6). Every method is synchronous and
// is always invoked with the context lock held — HostRegistry
// implementations may assume no concurrent call from this module will ever
// overlap another (spec section 5).
type HostRegistry interface {
	// GetPluginsInfo returns every currently installed plug-in. Used by
	// Phase A to snapshot which identifiers are STARTING/ACTIVE.
	GetPluginsInfo(ctx context.Context) ([]*plugin.Info, error)

	// InstalledPlugin looks up the installed plugin.Info for id, if any.
	// Used by Phase C step 1.
	InstalledPlugin(ctx context.Context, id string) (*plugin.Info, bool, error)

	// GetPluginState returns id's current lifecycle state.
	GetPluginState(ctx context.Context, id string) (State, error)

	// InstallPlugin installs info, discovered via l. A non-nil error
	// aborts the remainder of Phase C (spec section 4.2).
	InstallPlugin(ctx context.Context, info *plugin.Info, l loader.Loader) error

	// UninstallPlugin uninstalls id. Precondition: id is not running;
	// violating this precondition is a fatal error (spec section 7).
	UninstallPlugin(ctx context.Context, id string) error

	// StopPlugins stops every running plug-in.
	StopPlugins(ctx context.Context) error

	// StartPlugin starts id.
	StartPlugin(ctx context.Context, id string) error

	// ReserveSlot records that id is about to be installed via l, i.e.
	// loaders_to_plugins[l] gains id, ahead of the InstallPlugin call
	// that makes it official (spec section 4.2, Phase C step 3).
	ReserveSlot(ctx context.Context, l loader.Loader, id string)

	// ReleaseSlot undoes a ReserveSlot that was never confirmed by a
	// successful InstallPlugin.
	ReleaseSlot(ctx context.Context, l loader.Loader, id string)
}
