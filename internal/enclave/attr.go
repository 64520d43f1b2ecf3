package enclave

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// LogLevel is the LibOS log verbosity understood by occlum_pal_init.
type LogLevel string

const (
	LogOff   LogLevel = "off"
	LogError LogLevel = "error"
	LogWarn  LogLevel = "warn"
	LogInfo  LogLevel = "info"
	LogTrace LogLevel = "trace"
)

// ErrInvalidAttr reports attributes the native runtime would reject.
var ErrInvalidAttr = errors.New("invalid enclave attributes")

var (
	levelFolder = cases.Fold()
	knownLevels = []LogLevel{LogOff, LogError, LogWarn, LogInfo, LogTrace}
)

// ParseLogLevel matches value case-insensitively against the LibOS levels.
func ParseLogLevel(value string) (LogLevel, error) {
	folded := levelFolder.String(strings.TrimSpace(value))
	for _, level := range knownLevels {
		if folded == string(level) {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: log level %q is not one of off, error, warn, info, trace", ErrInvalidAttr, value)
}

// Attr mirrors occlum_pal_attr_t.
type Attr struct {
	// InstanceDir is mandatory; the runtime dereferences it unconditionally.
	InstanceDir string
	// LogLevel may be empty, which the runtime treats as off.
	LogLevel LogLevel
}

// cStrings returns NUL-terminated copies of both attributes.
func (a Attr) cStrings() (instanceDir, logLevel []byte, err error) {
	if a.InstanceDir == "" {
		return nil, nil, fmt.Errorf("%w: instance dir is empty", ErrInvalidAttr)
	}
	if strings.ContainsRune(a.InstanceDir, 0) {
		return nil, nil, fmt.Errorf("%w: instance dir contains a NUL byte", ErrInvalidAttr)
	}
	level := a.LogLevel
	if level == "" {
		level = LogOff
	}
	if _, err := ParseLogLevel(string(level)); err != nil {
		return nil, nil, err
	}
	instanceDir = append([]byte(a.InstanceDir), 0)
	logLevel = append([]byte(level), 0)
	return instanceDir, logLevel, nil
}
