package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains endpoint and shutdown settings.
type Server struct {
	// SocketPath overrides the address derived from the executable path.
	SocketPath     string `toml:"socket_path"`
	ProbeTimeoutMS int    `toml:"probe_timeout_ms" validate:"gt=0"`
	StopTimeoutMS  int    `toml:"stop_timeout_ms" validate:"gt=0"`
	StartupLock    bool   `toml:"startup_lock"`
	LockWaitMS     int    `toml:"lock_wait_ms" validate:"gt=0"`
	PIDFile        bool   `toml:"pid_file"`
}

// Enclave contains the attributes handed to the native runtime.
type Enclave struct {
	InstanceDir string `toml:"instance_dir" validate:"required"`
	LogLevel    string `toml:"log_level" validate:"required,oneof=off error warn info trace"`
	PALLibrary  string `toml:"pal_library" validate:"required"`
}

// Logging contains configuration for daemon log output.
type Logging struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=auto console json"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for the exec daemon.
type Config struct {
	Server  Server  `toml:"server"`
	Enclave Enclave `toml:"enclave"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file so they always win.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(os.LookupEnv); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// SocketAddress returns server.socket_path when set and otherwise derives the
// socket from the daemon's invocation path.
func (c *Config) SocketAddress(argv0 string) (string, error) {
	return endpoint.ResolveAddress(c.Server.SocketPath, argv0)
}

// ProbeTimeout bounds the liveness check against an existing socket.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Server.ProbeTimeoutMS) * time.Millisecond
}

// StopTimeout bounds graceful server shutdown and `stop` grace periods.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.Server.StopTimeoutMS) * time.Millisecond
}

// LockWait bounds how long a launcher waits for the startup lock.
func (c *Config) LockWait() time.Duration {
	return time.Duration(c.Server.LockWaitMS) * time.Millisecond
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := fileutil.WriteAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
