// Package scanner implements the top-level scan-and-reconcile engine (spec
// section 4.2): it iterates every loader.Loader registered with it, merges
// their results by identifier under a highest-version-wins rule, and drives
// install/upgrade/restart against a registry.HostRegistry.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostplane/pluginfw/loader"
	"github.com/hostplane/pluginfw/logging"
	"github.com/hostplane/pluginfw/metrics"
	"github.com/hostplane/pluginfw/plugin"
	"github.com/hostplane/pluginfw/registry"
	"github.com/hostplane/pluginfw/util"
)

// Flag is a scan option bit, independent of the others (spec section 4.2).
type Flag uint32

const (
	// Upgrade replaces an installed plug-in when a strictly newer version
	// is discovered.
	Upgrade Flag = 1 << iota
	// StopAllOnInstall stops every running plug-in before installing any
	// new one.
	StopAllOnInstall
	// StopAllOnUpgrade stops every running plug-in before uninstalling
	// one for upgrade.
	StopAllOnUpgrade
	// RestartActive restarts, after install/upgrade, every plug-in that
	// was STARTING or ACTIVE when the scan began.
	RestartActive
)

// Has reports whether bit is set in f.
func (f Flag) Has(bit Flag) bool {
	return f&bit != 0
}

// Stats summarizes one Scan call for logging and metrics (SPEC_FULL section 3
// expansion; does not change the scan algorithm or its return status).
type Stats struct {
	Discovered int
	Installed  int
	Upgraded   int
	Restarted  int
	Failed     int
}

// Scanner is the engine bound to a host context (spec section 2). The zero
// value is not usable; construct with New.
type Scanner struct {
	registry registry.HostRegistry
	logger   logging.Logger
	metrics  *metrics.ScanMetrics

	// mu is the "context lock" of spec section 5: held for the entire
	// duration of a Scan call, including every host registry callback.
	mu sync.Mutex

	// loadersMu is the separate "framework lock" guarding the registered
	// loader set, independent of any in-progress Scan.
	loadersMu sync.Mutex
	loaders   []loader.Loader
}

// Option configures a Scanner at construction time.
type Option func(*Scanner)

// WithLogger overrides the default no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics attaches a metrics.ScanMetrics; nil (the default) disables
// instrumentation entirely.
func WithMetrics(m *metrics.ScanMetrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// New returns a Scanner bound to reg.
func New(reg registry.HostRegistry, opts ...Option) *Scanner {
	s := &Scanner{
		registry: reg,
		logger:   logging.NewNoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterLoader adds l to the set of loaders consulted by Scan. Loaders
// are consulted in registration order within a single Scan call (spec
// section 5); order is not guaranteed to be stable across separate Go
// process runs, since it simply reflects registration order.
func (s *Scanner) RegisterLoader(l loader.Loader) {
	s.loadersMu.Lock()
	defer s.loadersMu.Unlock()
	s.loaders = append(s.loaders, l)
}

// UnregisterLoader removes l, if registered. The caller must not unregister
// a loader concurrently with a Scan that is using it (spec section 5).
func (s *Scanner) UnregisterLoader(l loader.Loader) {
	s.loadersMu.Lock()
	defer s.loadersMu.Unlock()
	for i, existing := range s.loaders {
		if existing == l {
			s.loaders = append(s.loaders[:i], s.loaders[i+1:]...)
			return
		}
	}
}

type availEntry struct {
	info   *plugin.Info
	loader loader.Loader
}

// Scan runs one full discover/reconcile/install/restart cycle (spec section
// 4.2, phases A-D). It returns Stats for observability and an error that is
// nil exactly when no phase produced an error ("OK" in spec terms); a
// non-nil error is the first error encountered — a Phase A snapshot failure,
// a fatal Phase C uninstall/install failure, or a Phase D restart failure
// (which does not stop the remaining restarts) — propagated unchanged if it
// came from the host registry.
func (s *Scanner) Scan(ctx context.Context, flags Flag) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	scanID := uuid.NewString()
	log := s.logger.WithFields(logging.Fields{"scan_id": scanID})
	log.Debug("scan: start")

	var stats Stats
	var firstErr error

	restartList, err := s.snapshotActiveSet(ctx, flags)
	if err != nil {
		log.Error("scan: snapshot active set: %v", err)
		s.recordMetrics(stats, time.Since(start), err)
		return stats, err
	}

	avail := s.discover(ctx, &stats)

	firstErr = s.reconcileAndInstall(ctx, flags, avail, &stats)

	s.restart(ctx, restartList, &stats, &firstErr)

	log.WithFields(logging.Fields{
		"discovered": stats.Discovered,
		"installed":  stats.Installed,
		"upgraded":   stats.Upgraded,
		"restarted":  stats.Restarted,
		"failed":     stats.Failed,
	}).Debug("scan: end")

	s.recordMetrics(stats, time.Since(start), firstErr)
	return stats, firstErr
}

func (s *Scanner) recordMetrics(stats Stats, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(elapsed, err == nil)
	s.metrics.AddInstalled(stats.Installed + stats.Upgraded)
	s.metrics.AddFailed(stats.Failed)
}

// snapshotActiveSet implements Phase A.
func (s *Scanner) snapshotActiveSet(ctx context.Context, flags Flag) ([]string, error) {
	if !flags.Has(RestartActive) || !(flags.Has(Upgrade) || flags.Has(StopAllOnInstall)) {
		return nil, nil
	}

	installed, err := s.registry.GetPluginsInfo(ctx)
	if err != nil {
		return nil, err
	}

	var restartList []string
	for _, info := range installed {
		state, err := s.registry.GetPluginState(ctx, info.Identifier)
		if err != nil {
			s.logger.WithFields(logging.Fields{"identifier": info.Identifier}).Error(
				"scan: get plugin state: %v", err)
			continue
		}
		if state == registry.Starting || state == registry.Active {
			restartList = append(restartList, info.Identifier)
		}
	}
	return restartList, nil
}

// discover implements Phase B: consult every registered loader, merging
// results into avail by highest-version-wins.
func (s *Scanner) discover(ctx context.Context, stats *Stats) *util.HashMap[string, availEntry] {
	avail := util.NewHashMap[string, availEntry](func(a, b string) bool { return a == b }, util.StringHash)

	s.loadersMu.Lock()
	loaders := make([]loader.Loader, len(s.loaders))
	copy(loaders, s.loaders)
	s.loadersMu.Unlock()

	for _, ld := range loaders {
		infos, err := ld.Scan(ctx)
		if err != nil {
			s.logger.Error("scan: loader returned error, skipping: %v", err)
			continue
		}

		for _, info := range infos {
			stats.Discovered++
			existing, ok := avail.Get(info.Identifier)
			switch {
			case !ok:
				avail.Put(info.Identifier, availEntry{info: info.Acquire(), loader: ld})
			case plugin.GreaterThan(info.Version, existing.info.Version):
				existing.info.Release()
				avail.Put(info.Identifier, availEntry{info: info.Acquire(), loader: ld})
			default:
				// Tie or lower version: info is discarded. Its one
				// remaining reference (the array's own) is dropped
				// below when this loader's whole array is released.
			}
		}

		loader.ReleasePlugins(ctx, ld, infos)
	}

	return avail
}

// reconcileAndInstall implements Phase C.
func (s *Scanner) reconcileAndInstall(ctx context.Context, flags Flag, avail *util.HashMap[string, availEntry], stats *Stats) error {
	entries := make([]availEntry, 0, avail.Len())
	avail.Drain(func(_ string, e availEntry) {
		entries = append(entries, e)
	})

	stoppedAll := false
	var firstErr error

	for i, e := range entries {
		info, ld := e.info, e.loader
		wasUpgrade := false

		installedInfo, isInstalled, err := s.registry.InstalledPlugin(ctx, info.Identifier)
		if err != nil {
			s.logger.WithFields(logging.Fields{"identifier": info.Identifier}).Error(
				"scan: lookup installed plugin: %v", err)
			stats.Failed++
			info.Release()
			continue
		}

		if isInstalled && flags.Has(Upgrade) && plugin.GreaterThan(info.Version, installedInfo.Version) {
			if (flags.Has(StopAllOnUpgrade) || flags.Has(StopAllOnInstall)) && !stoppedAll {
				if err := s.registry.StopPlugins(ctx); err != nil {
					s.logger.Error("scan: stop all plugins: %v", err)
				}
				stoppedAll = true
			}
			if err := s.registry.UninstallPlugin(ctx, info.Identifier); err != nil {
				s.logger.WithFields(logging.Fields{"identifier": info.Identifier}).Error(
					"scan: uninstall for upgrade: %v", err)
				stats.Failed++
				info.Release()
				firstErr = err
				releaseRemaining(entries[i+1:])
				return firstErr
			}
			isInstalled = false
			wasUpgrade = true
		}

		if !isInstalled {
			if flags.Has(StopAllOnInstall) && !stoppedAll {
				if err := s.registry.StopPlugins(ctx); err != nil {
					s.logger.Error("scan: stop all plugins: %v", err)
				}
				stoppedAll = true
			}

			s.registry.ReserveSlot(ctx, ld, info.Identifier)
			if err := s.registry.InstallPlugin(ctx, info, ld); err != nil {
				s.registry.ReleaseSlot(ctx, ld, info.Identifier)
				s.logger.WithFields(logging.Fields{"identifier": info.Identifier}).Error(
					"scan: install plugin: %v", err)
				stats.Failed++
				info.Release()
				firstErr = err
				releaseRemaining(entries[i+1:])
				return firstErr
			}
			if wasUpgrade {
				stats.Upgraded++
			} else {
				stats.Installed++
			}
		}

		info.Release()
	}

	return firstErr
}

func releaseRemaining(entries []availEntry) {
	for _, e := range entries {
		e.info.Release()
	}
}

// restart implements Phase D.
func (s *Scanner) restart(ctx context.Context, restartList []string, stats *Stats, firstErr *error) {
	for _, id := range restartList {
		_, isInstalled, err := s.registry.InstalledPlugin(ctx, id)
		if err != nil || !isInstalled {
			continue
		}
		if err := s.registry.StartPlugin(ctx, id); err != nil {
			s.logger.WithFields(logging.Fields{"identifier": id}).Error("scan: restart plugin: %v", err)
			stats.Failed++
			if *firstErr == nil {
				*firstErr = err
			}
			continue
		}
		stats.Restarted++
	}
}
