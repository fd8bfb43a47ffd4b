package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hostplane/pluginfw/loader"
	"github.com/hostplane/pluginfw/plugin"
	"github.com/hostplane/pluginfw/registry/hosttest"
)

func mustVersion(t *testing.T, s string) *plugin.Version {
	t.Helper()
	v, err := plugin.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

// fakeLoader returns a fixed, pre-built slice of *plugin.Info from Scan. A
// nil scanErr means success.
type fakeLoader struct {
	infos   []*plugin.Info
	scanErr error
	called  bool
}

func (l *fakeLoader) Scan(context.Context) ([]*plugin.Info, error) {
	l.called = true
	if l.scanErr != nil {
		return nil, l.scanErr
	}
	return l.infos, nil
}

func TestScanEmptyFilesystem(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)
	s.RegisterLoader(&fakeLoader{})

	stats, err := s.Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if diff := cmp.Diff(Stats{}, stats); diff != "" {
		t.Fatalf("Stats mismatch (-want +got):\n%s", diff)
	}
	if len(reg.Calls) != 0 {
		t.Fatalf("Calls = %v, want none", reg.Calls)
	}
}

func TestScanTwoVersionsSameIdentifierAcrossLoaders(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	ldLow := &fakeLoader{infos: []*plugin.Info{plugin.New("p", mustVersion(t, "1.0"), "/a/p")}}
	ldHigh := &fakeLoader{infos: []*plugin.Info{plugin.New("p", mustVersion(t, "2.0"), "/b/p")}}
	s.RegisterLoader(ldLow)
	s.RegisterLoader(ldHigh)

	stats, err := s.Scan(context.Background(), Upgrade)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Discovered != 2 {
		t.Fatalf("Discovered = %d, want 2", stats.Discovered)
	}
	if stats.Installed != 1 {
		t.Fatalf("Installed = %d, want 1", stats.Installed)
	}

	info, ok, _ := reg.InstalledPlugin(context.Background(), "p")
	if !ok {
		t.Fatal("expected p to be installed")
	}
	if info.Version.String() != "2.0" {
		t.Fatalf("installed version = %q, want 2.0", info.Version.String())
	}
}

func TestScanUpgradeCallOrder(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	ld := &fakeLoader{}
	v1 := plugin.New("p", mustVersion(t, "1.0"), "/p")
	reg.InstallPlugin(context.Background(), v1, ld)
	reg.StartPlugin(context.Background(), "p")
	reg.Calls = nil // reset so we only assert on the scan under test

	ld.infos = []*plugin.Info{plugin.New("p", mustVersion(t, "2.0"), "/p")}
	s.RegisterLoader(ld)

	stats, err := s.Scan(context.Background(), Upgrade|StopAllOnUpgrade|RestartActive)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Upgraded != 1 {
		t.Fatalf("Upgraded = %d, want 1", stats.Upgraded)
	}
	if stats.Restarted != 1 {
		t.Fatalf("Restarted = %d, want 1", stats.Restarted)
	}

	want := []string{"stop_plugins", "uninstall_plugin:p", "install_plugin:p@2.0", "start_plugin:p"}
	if len(reg.Calls) != len(want) {
		t.Fatalf("Calls = %v, want %v", reg.Calls, want)
	}
	for i, w := range want {
		if reg.Calls[i] != w {
			t.Errorf("Calls[%d] = %q, want %q", i, reg.Calls[i], w)
		}
	}
}

func TestScanMalformedDescriptorIsSkipped(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	// A loader surfacing a per-entry parse failure simply omits that entry
	// from its returned slice (spec section 4.3); this is indistinguishable
	// at the scan-engine level from "nothing there", so there is nothing
	// further for the engine to skip but the remaining, well-formed entry
	// still installs normally.
	ld := &fakeLoader{infos: []*plugin.Info{plugin.New("good", mustVersion(t, "1.0"), "/good")}}
	s.RegisterLoader(ld)

	stats, err := s.Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Installed != 1 {
		t.Fatalf("Installed = %d, want 1", stats.Installed)
	}
	if _, ok, _ := reg.InstalledPlugin(context.Background(), "good"); !ok {
		t.Fatal("expected good to be installed")
	}
}

func TestScanInstallFailureAbortsPhaseCButRunsPhaseD(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	ld := &fakeLoader{}
	active := plugin.New("active", mustVersion(t, "1.0"), "/active")
	reg.InstallPlugin(context.Background(), active, ld)
	reg.StartPlugin(context.Background(), "active")
	reg.Calls = nil

	failErr := errors.New("install boom")
	reg.InstallHook = func(_ context.Context, info *plugin.Info, _ loader.Loader) error {
		if info.Identifier == "bad" {
			return failErr
		}
		return nil
	}

	ld.infos = []*plugin.Info{plugin.New("bad", mustVersion(t, "1.0"), "/bad")}
	s.RegisterLoader(ld)

	stats, err := s.Scan(context.Background(), RestartActive|StopAllOnInstall)
	if !errors.Is(err, failErr) {
		t.Fatalf("Scan err = %v, want %v", err, failErr)
	}
	if stats.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", stats.Failed)
	}
	// Phase D still ran despite the Phase C failure.
	if stats.Restarted != 1 {
		t.Fatalf("Restarted = %d, want 1", stats.Restarted)
	}

	foundStart := false
	for _, c := range reg.Calls {
		if c == "start_plugin:active" {
			foundStart = true
		}
	}
	if !foundStart {
		t.Fatalf("Calls = %v, expected start_plugin:active despite Phase C failure", reg.Calls)
	}
}

func TestScanLoaderErrorIsLoggedAndSkipped(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	bad := &fakeLoader{scanErr: errors.New("loader exploded")}
	good := &fakeLoader{infos: []*plugin.Info{plugin.New("good", mustVersion(t, "1.0"), "/good")}}
	s.RegisterLoader(bad)
	s.RegisterLoader(good)

	stats, err := s.Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Installed != 1 {
		t.Fatalf("Installed = %d, want 1", stats.Installed)
	}
}

func TestScanRefcountBalance(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	low := plugin.New("p", mustVersion(t, "1.0"), "/a/p")
	high := plugin.New("p", mustVersion(t, "2.0"), "/b/p")
	s.RegisterLoader(&fakeLoader{infos: []*plugin.Info{low}})
	s.RegisterLoader(&fakeLoader{infos: []*plugin.Info{high}})

	if _, err := s.Scan(context.Background(), Upgrade); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if low.RefCount() != 0 {
		t.Fatalf("discarded lower-version RefCount() = %d, want 0", low.RefCount())
	}
	installed, ok, _ := reg.InstalledPlugin(context.Background(), "p")
	if !ok {
		t.Fatal("expected p installed")
	}
	if installed.RefCount() != 1 {
		t.Fatalf("installed RefCount() = %d, want 1 (the host's own reference)", installed.RefCount())
	}
}

func TestScanRestartFidelity(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	ldA := &fakeLoader{}
	active := plugin.New("active", mustVersion(t, "1.0"), "/active")
	idle := plugin.New("idle", mustVersion(t, "1.0"), "/idle")
	reg.InstallPlugin(context.Background(), active, ldA)
	reg.InstallPlugin(context.Background(), idle, ldA)
	reg.StartPlugin(context.Background(), "active")
	// idle stays INSTALLED, never started.
	reg.Calls = nil

	stats, err := s.Scan(context.Background(), RestartActive|StopAllOnInstall)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Restarted != 1 {
		t.Fatalf("Restarted = %d, want 1", stats.Restarted)
	}

	for _, c := range reg.Calls {
		if c == "start_plugin:idle" {
			t.Fatal("idle plugin should not have been restarted")
		}
	}
}

func TestScanGetPluginsInfoFailureAbortsScan(t *testing.T) {
	reg := hosttest.New()
	s := New(reg)

	ld := &fakeLoader{infos: []*plugin.Info{plugin.New("p", mustVersion(t, "1.0"), "/p")}}
	s.RegisterLoader(ld)

	snapshotErr := errors.New("snapshot boom")
	reg.GetPluginsInfoHook = func(context.Context) ([]*plugin.Info, error) {
		return nil, snapshotErr
	}

	stats, err := s.Scan(context.Background(), RestartActive|Upgrade)
	if !errors.Is(err, snapshotErr) {
		t.Fatalf("Scan err = %v, want %v", err, snapshotErr)
	}
	if ld.called {
		t.Fatal("no loader should have been consulted once Phase A fails")
	}
	if diff := cmp.Diff(Stats{}, stats); diff != "" {
		t.Fatalf("Stats mismatch (-want +got):\n%s", diff)
	}
}
