package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config: %s failed %q validation (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateEnclave()
}

// maxSocketPath is sizeof(sun_path) minus the terminating NUL on Linux.
const maxSocketPath = 107

func (c *Config) validateServer() error {
	if len(c.Server.SocketPath) > maxSocketPath {
		return fmt.Errorf("server.socket_path is %d bytes; unix sockets allow at most %d", len(c.Server.SocketPath), maxSocketPath)
	}
	return nil
}

func (c *Config) validateEnclave() error {
	if strings.ContainsRune(c.Enclave.InstanceDir, 0) {
		return errors.New("enclave.instance_dir must not contain NUL bytes")
	}
	return nil
}

// fieldPath turns "Config.Enclave.LogLevel" into "Enclave.LogLevel".
func fieldPath(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
