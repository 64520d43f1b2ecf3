package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/testsupport"
)

type stubProber struct {
	liveness endpoint.Liveness
	err      error
}

func (s stubProber) Probe(context.Context, string) (endpoint.Liveness, error) {
	return s.liveness, s.err
}

func TestCheckInstanceDir_OK(t *testing.T) {
	result := CheckInstanceDir(t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckInstanceDir_NotExist(t *testing.T) {
	result := CheckInstanceDir(filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckInstanceDir_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	testsupport.WriteFile(t, f, "x", 0o644)
	if result := CheckInstanceDir(f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSocketDirectory(t *testing.T) {
	dir := t.TempDir()
	if result := CheckSocketDirectory(filepath.Join(dir, "occlum_exec.sock")); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckSocketDirectory(filepath.Join(dir, "missing", "occlum_exec.sock")); result.Passed {
		t.Fatal("expected failure for missing parent")
	}
	if result := CheckSocketDirectory(""); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckPALLibrary_Path(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libocclum-pal.so")
	testsupport.WriteFile(t, lib, "\x7fELF", 0o644)
	result := CheckPALLibrary(lib)
	if !result.Passed || result.Detail != lib {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result := CheckPALLibrary(filepath.Dir(lib)); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckPALLibrary_SearchesLDLibraryPath(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "libtest-pal.so"), "\x7fELF", 0o644)
	t.Setenv("LD_LIBRARY_PATH", "/nonexistent"+string(os.PathListSeparator)+dir)

	result := CheckPALLibrary("libtest-pal.so")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result.Detail != filepath.Join(dir, "libtest-pal.so") {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestCheckPALLibrary_Missing(t *testing.T) {
	t.Setenv("LD_LIBRARY_PATH", t.TempDir())
	if result := CheckPALLibrary("libdefinitely-missing-pal.so"); result.Passed {
		t.Fatal("expected failure for missing library")
	}
	if result := CheckPALLibrary(" "); result.Passed {
		t.Fatal("expected failure for empty library")
	}
}

func TestCheckEndpoint(t *testing.T) {
	cases := []struct {
		name   string
		prober stubProber
		passed bool
		detail string
	}{
		{"free", stubProber{liveness: endpoint.NoArtifact}, true, "(free)"},
		{"stale", stubProber{liveness: endpoint.ArtifactButUnresponsive}, true, "will be reclaimed"},
		{"live", stubProber{liveness: endpoint.ArtifactAndLive}, true, "already serving"},
		{"error", stubProber{err: errors.New("boom")}, false, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckEndpoint(context.Background(), tc.prober, "/tmp/occlum_exec.sock")
			if result.Passed != tc.passed || !strings.Contains(result.Detail, tc.detail) {
				t.Fatalf("unexpected result: %+v", result)
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, "", nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Config(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Enclave.InstanceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(testsupport.BaseDir(cfg), "libocclum-pal.so")
	testsupport.WriteFile(t, lib, "\x7fELF", 0o644)
	cfg.Enclave.PALLibrary = lib

	results := RunAll(context.Background(), cfg, cfg.Server.SocketPath, stubProber{liveness: endpoint.NoArtifact})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("Failed reported a failure")
	}

	cfg.Enclave.InstanceDir = filepath.Join(testsupport.BaseDir(cfg), "missing")
	if !Failed(RunAll(context.Background(), cfg, cfg.Server.SocketPath, nil)) {
		t.Fatal("expected a failure for a missing instance dir")
	}
}
