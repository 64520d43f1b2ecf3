package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"occlum-exec/internal/enclave"
	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/fileutil"
	"occlum-exec/internal/gate"
	"occlum-exec/internal/ipc"
	"occlum-exec/internal/logging"
)

const defaultLockWait = time.Minute

// Prober reports whether a server already answers on a socket path.
type Prober interface {
	Probe(ctx context.Context, path string) (endpoint.Liveness, error)
}

// Options configures one coordinator run.
type Options struct {
	// SocketPath is the resolved endpoint address.
	SocketPath string
	Attr       enclave.Attr
	// StopTimeout bounds graceful RPC shutdown.
	StopTimeout time.Duration
	// StartupLock serializes concurrent launches from probe until the bound
	// socket answers health checks. Without it two launchers can still race
	// between probe and bind; once one answers, the other sees it as live.
	StartupLock bool
	// LockWait bounds the wait for the startup lock.
	LockWait time.Duration
	// PIDPath, when set, receives the daemon PID while serving.
	PIDPath string
	// Stdout receives the operator-facing status lines.
	Stdout io.Writer
	// RunID labels logs and status output; generated when empty.
	RunID string
}

// Coordinator sequences a single daemon lifetime.
type Coordinator struct {
	opts    Options
	prober  Prober
	bracket *enclave.Bracket
	gate    *gate.Gate

	baseLogger *slog.Logger
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	startedAt time.Time
	ready     chan struct{}
	readyOnce sync.Once
}

// NewCoordinator wires a coordinator. The runtime is wrapped in a fresh
// enclave bracket owned by this coordinator.
func NewCoordinator(opts Options, prober Prober, rt enclave.Runtime, logger *slog.Logger) (*Coordinator, error) {
	if opts.SocketPath == "" {
		return nil, errors.New("coordinator requires socket path")
	}
	if prober == nil {
		return nil, errors.New("coordinator requires prober")
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	bracket, err := enclave.NewBracket(rt, logger)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		opts:       opts,
		prober:     prober,
		bracket:    bracket,
		gate:       gate.New(),
		baseLogger: logger,
		logger:     logging.NewComponentLogger(logger, "coordinator").With(logging.String(logging.FieldSocket, opts.SocketPath)),
		ready:      make(chan struct{}),
	}, nil
}

// RunID returns the identifier attached to this run.
func (c *Coordinator) RunID() string {
	return c.opts.RunID
}

// State reports the current lifecycle step.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready is closed once the enclave is up and health reports SERVING.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// RequestStop closes the gate. It is safe from any goroutine and reports
// whether this call made the transition.
func (c *Coordinator) RequestStop() bool {
	stopped := c.gate.MarkStopped()
	if stopped {
		c.logger.Info("shutdown requested",
			logging.String(logging.FieldEventType, "shutdown_requested"),
			logging.String(logging.FieldState, c.State().String()))
	}
	return stopped
}

// Status describes the daemon for the Status RPC.
func (c *Coordinator) Status() ipc.StatusResponse {
	c.mu.Lock()
	state := c.state
	startedAt := c.startedAt
	c.mu.Unlock()
	return ipc.StatusResponse{
		Running:     c.gate.Serving(),
		PID:         os.Getpid(),
		RunID:       c.opts.RunID,
		Socket:      c.opts.SocketPath,
		InstanceDir: c.opts.Attr.InstanceDir,
		State:       state.String(),
		StartedAt:   startedAt,
	}
}

// Run executes the lifetime. Cancelling ctx is treated as a stop request;
// it never interrupts enclave init or destroy.
func (c *Coordinator) Run(ctx context.Context) (Outcome, error) {
	// Init and destroy run on the same OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stopOnCancel := context.AfterFunc(ctx, func() { c.RequestStop() })
	defer stopOnCancel()

	c.setState(StateProbing)
	lock, err := c.acquireStartupLock(ctx)
	if err != nil {
		return c.fail(err)
	}
	defer lock.Release()

	listener, live, err := c.claimEndpoint(ctx)
	if err != nil {
		return c.fail(err)
	}
	if live {
		c.setState(StateAlreadyRunning)
		fmt.Fprintln(c.opts.Stdout, "server stared")
		return OutcomeAlreadyRunning, nil
	}
	c.setState(StateBound)

	server, err := ipc.NewServer(listener, c, c.baseLogger)
	if err != nil {
		_ = listener.Close()
		return c.fail(fmt.Errorf("create ipc server: %w", err))
	}
	// Answer health checks as NOT_SERVING through enclave init so another
	// launcher sees this socket as live and does not reclaim it.
	server.Serve()
	_ = lock.Release()

	if err := c.bracket.Acquire(c.opts.Attr); err != nil {
		server.Close(c.opts.StopTimeout)
		return c.fail(err)
	}
	c.setState(StateResourceAcquired)

	if err := c.gate.MarkServing(); err != nil {
		c.logger.Info("stop requested before serving began",
			logging.String(logging.FieldEventType, "serve_skipped"),
			logging.Error(err))
	} else {
		server.MarkReady()
		c.markServing()
		fmt.Fprintf(c.opts.Stdout, "server stared on addr %s\n", c.opts.SocketPath)
		c.writePIDFile()
		c.gate.WaitUntilStopped()
	}

	c.setState(StateStopping)
	server.Close(c.opts.StopTimeout)
	c.removePIDFile()

	releaseErr := c.bracket.Release()
	if releaseErr != nil {
		logging.ErrorWithContext(c.logger, "enclave release failed", "enclave_release_failed",
			logging.Error(releaseErr),
			logging.String(logging.FieldErrorHint, "check the LibOS log for the destroy failure"))
	}
	c.setState(StateResourceReleased)
	fmt.Fprintln(c.opts.Stdout, "server stopped")
	c.setState(StateTerminated)
	return OutcomeStopped, releaseErr
}

// claimEndpoint probes the socket and binds it unless a live server owns it.
func (c *Coordinator) claimEndpoint(ctx context.Context) (net.Listener, bool, error) {
	path := c.opts.SocketPath
	liveness, err := c.prober.Probe(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("probe endpoint: %w", err)
	}
	c.logger.Debug("endpoint probed", logging.String("liveness", liveness.String()))

	switch liveness {
	case endpoint.ArtifactAndLive:
		return nil, true, nil
	case endpoint.ArtifactButUnresponsive:
		logging.WarnWithContext(c.logger, "reclaiming stale socket", "stale_socket_reclaimed",
			logging.String(logging.FieldImpact, "a previous daemon exited without cleanup"),
			logging.String(logging.FieldErrorHint, "none required"))
		if err := endpoint.Reclaim(path); err != nil {
			return nil, false, err
		}
	}

	listener, err := endpoint.Listen(path)
	if err != nil {
		return nil, false, err
	}
	return listener, false, nil
}

func (c *Coordinator) acquireStartupLock(ctx context.Context) (*endpoint.StartupLock, error) {
	if !c.opts.StartupLock {
		return nil, nil
	}
	lockCtx, cancel := context.WithTimeout(ctx, c.opts.LockWait)
	defer cancel()
	return endpoint.AcquireStartupLock(lockCtx, c.opts.SocketPath)
}

func (c *Coordinator) markServing() {
	c.mu.Lock()
	c.startedAt = time.Now().UTC()
	c.mu.Unlock()
	c.setState(StateServing)
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *Coordinator) setState(next State) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	c.logger.Info("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from", prev.String()),
		logging.String(logging.FieldState, next.String()))
}

func (c *Coordinator) fail(err error) (Outcome, error) {
	c.setState(StateFailed)
	return OutcomeFailed, err
}

func (c *Coordinator) writePIDFile() {
	if c.opts.PIDPath == "" {
		return
	}
	if err := fileutil.WritePIDFile(c.opts.PIDPath, os.Getpid()); err != nil {
		logging.WarnWithContext(c.logger, "pid file not written", "pid_file_write_failed",
			logging.Error(err),
			logging.String("pid_file", c.opts.PIDPath),
			logging.String(logging.FieldImpact, "stop --force cannot locate this process"))
	}
}

func (c *Coordinator) removePIDFile() {
	if c.opts.PIDPath == "" {
		return
	}
	if err := os.Remove(c.opts.PIDPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("pid file cleanup failed", logging.Error(err))
	}
}
