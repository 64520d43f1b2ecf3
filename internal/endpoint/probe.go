package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"occlum-exec/internal/logging"
)

var (
	// ErrProbeSetup reports a probe that could not be carried out at all.
	ErrProbeSetup = errors.New("endpoint probe setup failed")
	// ErrNotSocket reports a path occupied by something other than a socket.
	ErrNotSocket = errors.New("endpoint path is not a socket")
)

// Liveness is the outcome of probing a socket path.
type Liveness int

const (
	NoArtifact Liveness = iota
	ArtifactButUnresponsive
	ArtifactAndLive
)

func (l Liveness) String() string {
	switch l {
	case NoArtifact:
		return "no_artifact"
	case ArtifactButUnresponsive:
		return "unresponsive"
	case ArtifactAndLive:
		return "live"
	default:
		return "unknown"
	}
}

// Checker issues the status-check call against a connected server.
type Checker interface {
	Check(ctx context.Context) error
	Close() error
}

// DialFunc builds a Checker for the socket at path. Connecting may be lazy;
// transport failures are expected to surface from Check.
type DialFunc func(path string) (Checker, error)

// DefaultProbeTimeout bounds a probe when the caller gives no timeout.
const DefaultProbeTimeout = 2 * time.Second

// Prober decides whether a socket path has a live server behind it.
type Prober struct {
	dial    DialFunc
	timeout time.Duration
	logger  *slog.Logger
}

// NewProber configures a prober. A non-positive timeout selects
// DefaultProbeTimeout.
func NewProber(dial DialFunc, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		dial:    dial,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "endpoint"),
	}
}

// Probe classifies path. It never returns ArtifactAndLive unless a status
// round trip completed, and returns an error only when the probe itself could
// not run.
func (p *Prober) Probe(ctx context.Context, path string) (Liveness, error) {
	kind, mode, err := inspectArtifact(path)
	if err != nil {
		return NoArtifact, fmt.Errorf("%w: stat %s: %w", ErrProbeSetup, path, err)
	}
	switch kind {
	case artifactNone:
		return NoArtifact, nil
	case artifactOther:
		return NoArtifact, fmt.Errorf("%w: %s has mode %s", ErrNotSocket, path, mode)
	case artifactDanglingLink:
		p.logger.Debug("socket path is a dangling symlink", logging.String(logging.FieldSocket, path))
		return ArtifactButUnresponsive, nil
	}
	if p.dial == nil {
		return NoArtifact, fmt.Errorf("%w: no dialer configured", ErrProbeSetup)
	}

	client, err := p.dial(path)
	if err != nil {
		return NoArtifact, fmt.Errorf("%w: build client for %s: %w", ErrProbeSetup, path, err)
	}
	defer client.Close()

	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	checkErr := client.Check(checkCtx)
	if err := ctx.Err(); err != nil {
		return NoArtifact, fmt.Errorf("probe %s: %w", path, err)
	}

	liveness := classify(checkErr)
	if liveness == ArtifactButUnresponsive {
		p.logger.Debug("socket artifact did not answer",
			logging.String(logging.FieldSocket, path),
			logging.Error(checkErr))
	} else {
		p.logger.Debug("socket artifact answered",
			logging.String(logging.FieldSocket, path),
			logging.Bool("status_error", checkErr != nil))
	}
	return liveness, nil
}

// classify maps the status-check result onto liveness. Any reply from the
// remote counts, error statuses included; only transport-level failures mean
// nobody is listening.
func classify(err error) Liveness {
	if err == nil {
		return ArtifactAndLive
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ArtifactButUnresponsive
	}
	st, ok := status.FromError(err)
	if !ok {
		return ArtifactButUnresponsive
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ArtifactButUnresponsive
	default:
		return ArtifactAndLive
	}
}
