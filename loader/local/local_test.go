package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hostplane/pluginfw/descriptor/yamlfile"
)

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRegisterDirIdempotent(t *testing.T) {
	ld := New(yamlfile.New())
	if err := ld.RegisterDir("/a"); err != nil {
		t.Fatalf("RegisterDir: %v", err)
	}
	if err := ld.RegisterDir("/a"); err != nil {
		t.Fatalf("RegisterDir (repeat): %v", err)
	}
	if got := ld.Dirs(); len(got) != 1 {
		t.Fatalf("Dirs() = %v, want exactly one entry", got)
	}
}

func TestUnregisterDirAndAll(t *testing.T) {
	ld := New(yamlfile.New())
	ld.RegisterDir("/a")
	ld.RegisterDir("/b")

	ld.UnregisterDir("/nonexistent")
	if got := ld.Dirs(); len(got) != 2 {
		t.Fatalf("Dirs() after unregistering absent path = %v, want 2 entries", got)
	}

	ld.UnregisterDir("/a")
	if got := ld.Dirs(); len(got) != 1 || got[0] != "/b" {
		t.Fatalf("Dirs() = %v, want [/b]", got)
	}

	ld.UnregisterAll()
	if got := ld.Dirs(); len(got) != 0 {
		t.Fatalf("Dirs() after UnregisterAll = %v, want empty", got)
	}
}

func TestScanSkipsHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "p.yaml", "id: p\nversion: \"1.0\"\n")
	writeDescriptor(t, dir, ".hidden.yaml", "id: hidden\nversion: \"1.0\"\n")

	ld := New(yamlfile.New())
	ld.RegisterDir(dir)

	infos, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(infos) != 1 || infos[0].Identifier != "p" {
		t.Fatalf("Scan() = %v, want exactly [p]", infos)
	}
}

func TestScanReconcilesVersionWinsWithinOneDir(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "p-v1.yaml", "id: p\nversion: \"1.0\"\n")
	writeDescriptor(t, dir, "p-v2.yaml", "id: p\nversion: \"2.0\"\n")

	ld := New(yamlfile.New())
	ld.RegisterDir(dir)

	infos, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Scan() returned %d infos, want 1", len(infos))
	}
	if infos[0].Version.String() != "2.0" {
		t.Fatalf("surviving version = %q, want 2.0", infos[0].Version.String())
	}
}

func TestScanSkipsMalformedDescriptors(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "good.yaml", "id: good\nversion: \"1.0\"\n")
	writeDescriptor(t, dir, "bad.yaml", "name: missing id\n")

	ld := New(yamlfile.New())
	ld.RegisterDir(dir)

	infos, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(infos) != 1 || infos[0].Identifier != "good" {
		t.Fatalf("Scan() = %v, want exactly [good]", infos)
	}
}

func TestScanMissingDirectoryIsNonFatal(t *testing.T) {
	ld := New(yamlfile.New())
	ld.RegisterDir(filepath.Join(t.TempDir(), "does-not-exist"))

	infos, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("Scan() = %v, want empty", infos)
	}
}

func TestScanIsIdempotentAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "p.yaml", "id: p\nversion: \"1.0\"\n")

	ld := New(yamlfile.New())
	ld.RegisterDir(dir)

	first, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := ld.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan (second): %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both scans to find exactly one plugin, got %d and %d", len(first), len(second))
	}
}
