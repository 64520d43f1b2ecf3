package enclave

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"occlum-exec/internal/logging"
)

var (
	// ErrAlreadyAcquired is returned by a second Acquire.
	ErrAlreadyAcquired = errors.New("enclave already acquired")
	// ErrNotAcquired is returned by Release without a successful Acquire.
	ErrNotAcquired = errors.New("enclave not acquired")
	// ErrReleased is returned once the bracket has been closed.
	ErrReleased = errors.New("enclave already released")
)

type bracketState int

const (
	bracketIdle bracketState = iota
	bracketAcquired
	bracketReleased
	bracketFailed
)

// Bracket owns the single acquire/release pair of one process lifetime.
type Bracket struct {
	runtime Runtime
	logger  *slog.Logger

	mu    sync.Mutex
	state bracketState
}

// NewBracket wraps runtime. A nil logger discards output.
func NewBracket(runtime Runtime, logger *slog.Logger) (*Bracket, error) {
	if runtime == nil {
		return nil, errors.New("enclave bracket requires a runtime")
	}
	return &Bracket{
		runtime: runtime,
		logger:  logging.NewComponentLogger(logger, "enclave"),
	}, nil
}

// Acquire initializes the enclave. It may be called once; a failed
// Acquire also spends the bracket.
func (b *Bracket) Acquire(attr Attr) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case bracketAcquired:
		return ErrAlreadyAcquired
	case bracketReleased, bracketFailed:
		return ErrReleased
	}

	b.logger.Debug("initializing enclave",
		logging.String("instance_dir", attr.InstanceDir),
		logging.String("log_level", string(attr.LogLevel)))

	if err := b.runtime.Init(attr); err != nil {
		b.state = bracketFailed
		return fmt.Errorf("enclave init: %w", err)
	}
	b.state = bracketAcquired
	b.logger.Info("enclave initialized",
		logging.String(logging.FieldEventType, "enclave_init"),
		logging.String("instance_dir", attr.InstanceDir))
	return nil
}

// Release destroys the enclave. The bracket is closed even when the
// native call fails; there is nothing left to retry against.
func (b *Bracket) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case bracketIdle, bracketFailed:
		return ErrNotAcquired
	case bracketReleased:
		return ErrReleased
	}

	b.state = bracketReleased
	if err := b.runtime.Destroy(); err != nil {
		return fmt.Errorf("enclave destroy: %w", err)
	}
	b.logger.Info("enclave destroyed",
		logging.String(logging.FieldEventType, "enclave_destroy"))
	return nil
}

// Acquired reports whether the enclave is currently held.
func (b *Bracket) Acquired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == bracketAcquired
}
