package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"occlum-exec/internal/config"
	"occlum-exec/internal/ipc"
	"occlum-exec/internal/testsupport"
)

type cliTestEnv struct {
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvInstanceDir, "")
	t.Setenv(config.EnvEnclaveLogLevel, "")

	dir := testsupport.TempDir(t)
	return &cliTestEnv{
		socketPath: filepath.Join(dir, "occlum_exec.sock"),
		configPath: filepath.Join(dir, "exec.toml"),
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--socket", env.socketPath, "--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

type fixedController struct{}

func (fixedController) RequestStop() bool { return true }

func (fixedController) Status() ipc.StatusResponse {
	return ipc.StatusResponse{
		Running:     true,
		PID:         31337,
		RunID:       "run-abc",
		Socket:      "/tmp/occlum_exec.sock",
		InstanceDir: "/srv/.occlum",
		State:       "serving",
		StartedAt:   time.Now().Add(-time.Minute),
	}
}

func TestStatusNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Not running") || !strings.Contains(out, env.socketPath) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStatusRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	srv, err := ipc.NewServer(testsupport.Listen(t, env.socketPath), fixedController{}, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close(time.Second) })

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"[OK] Running", "31337", "run-abc", "/srv/.occlum", "serving"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestStopNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(out, "Daemon is not running") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(filepath.Dir(env.configPath), "generated.toml")

	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
	if _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "not found, defaults used") || !strings.Contains(out, "[enclave]") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
	if !strings.Contains(out, env.socketPath) {
		t.Fatalf("show output should reflect --socket:\n%s", out)
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "bogus"); err == nil {
		t.Fatal("expected error for unknown argument")
	}
}

func TestCheckReportsReadiness(t *testing.T) {
	env := setupCLITestEnv(t)
	base := filepath.Dir(env.configPath)
	instance := filepath.Join(base, ".occlum")
	lib := filepath.Join(base, "libocclum-pal.so")
	testsupport.WriteFile(t, filepath.Join(instance, "build", "Occlum.json"), "{}", 0o644)
	testsupport.WriteFile(t, lib, "\x7fELF", 0o644)
	testsupport.WriteFile(t, env.configPath, "[enclave]\ninstance_dir = \""+instance+"\"\npal_library = \""+lib+"\"\n", 0o644)

	out, err := env.run(t, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"Instance directory:", "PAL library:", "Socket directory:", "(free)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("check output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[WARN]") {
		t.Fatalf("unexpected warning:\n%s", out)
	}
}

func TestCheckFailsForMissingLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(filepath.Dir(env.configPath), "missing-pal.so")
	testsupport.WriteFile(t, env.configPath, "[enclave]\npal_library = \""+missing+"\"\n", 0o644)

	out, err := env.run(t, "check")
	if err == nil {
		t.Fatalf("expected check to fail:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] "+missing) {
		t.Fatalf("missing library not reported:\n%s", out)
	}
}
