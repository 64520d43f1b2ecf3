package config

import (
	"fmt"
	"strings"

	"occlum-exec/internal/enclave"
)

type lookupEnvFunc func(string) (string, bool)

func (c *Config) normalize(lookup lookupEnvFunc) error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizeEnclave(lookup); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() error {
	c.Server.SocketPath = strings.TrimSpace(c.Server.SocketPath)
	if c.Server.SocketPath != "" {
		expanded, err := ExpandPath(c.Server.SocketPath)
		if err != nil {
			return fmt.Errorf("server.socket_path: %w", err)
		}
		c.Server.SocketPath = expanded
	}
	if c.Server.ProbeTimeoutMS == 0 {
		c.Server.ProbeTimeoutMS = defaultProbeTimeoutMS
	}
	if c.Server.StopTimeoutMS == 0 {
		c.Server.StopTimeoutMS = defaultStopTimeoutMS
	}
	if c.Server.LockWaitMS == 0 {
		c.Server.LockWaitMS = defaultLockWaitMS
	}
	return nil
}

// normalizeEnclave applies the environment overrides. An override that is
// set but empty is ignored: the runtime requires a non-empty instance dir.
func (c *Config) normalizeEnclave(lookup lookupEnvFunc) error {
	if lookup != nil {
		if value, ok := lookup(EnvInstanceDir); ok && value != "" {
			c.Enclave.InstanceDir = value
		}
		if value, ok := lookup(EnvEnclaveLogLevel); ok && strings.TrimSpace(value) != "" {
			c.Enclave.LogLevel = value
		}
	}
	if c.Enclave.InstanceDir == "" {
		c.Enclave.InstanceDir = defaultInstanceDir
	}
	if strings.TrimSpace(c.Enclave.LogLevel) == "" {
		c.Enclave.LogLevel = defaultEnclaveLog
	}
	level, err := enclave.ParseLogLevel(c.Enclave.LogLevel)
	if err != nil {
		return fmt.Errorf("enclave.log_level: %w", err)
	}
	c.Enclave.LogLevel = string(level)
	c.Enclave.PALLibrary = strings.TrimSpace(c.Enclave.PALLibrary)
	if c.Enclave.PALLibrary == "" {
		c.Enclave.PALLibrary = defaultPALLibrary
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := ExpandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}

// EnclaveAttr returns the attributes handed to the native runtime.
func (c *Config) EnclaveAttr() enclave.Attr {
	return enclave.Attr{
		InstanceDir: c.Enclave.InstanceDir,
		LogLevel:    enclave.LogLevel(c.Enclave.LogLevel),
	}
}
