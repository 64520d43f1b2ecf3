package testsupport

import (
	"path/filepath"
	"testing"

	"occlum-exec/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose socket, instance directory and log file
// live in a fresh short temp directory. Options are applied last.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := TempDir(t)
	cfgVal := config.Default()
	cfgVal.Server.SocketPath = filepath.Join(base, "occlum_exec.sock")
	cfgVal.Enclave.InstanceDir = filepath.Join(base, ".occlum")
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLogFile routes daemon logs to a file under the config's temp directory.
func WithLogFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, name)
	}
}

// WithInstanceDir overrides the enclave instance directory.
func WithInstanceDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enclave.InstanceDir = dir
	}
}

// WithEnclaveLogLevel overrides the LibOS log level.
func WithEnclaveLogLevel(level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enclave.LogLevel = level
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Server.SocketPath)
}
