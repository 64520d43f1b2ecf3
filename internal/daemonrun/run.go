package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"occlum-exec/internal/config"
	"occlum-exec/internal/daemon"
	"occlum-exec/internal/enclave"
	"occlum-exec/internal/endpoint"
	"occlum-exec/internal/ipc"
	"occlum-exec/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// Argv0 is the invocation path used to derive the socket address.
	Argv0       string
	LogLevel    string
	LogFormat   string
	Development bool
	Stdout      io.Writer
	// Runtime replaces the PAL binding; tests use it to avoid native code.
	Runtime enclave.Runtime
}

// Run starts the exec server and blocks until it has shut down or found
// another live instance.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (daemon.Outcome, error) {
	if cfg == nil {
		return daemon.OutcomeFailed, fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	socketPath, err := cfg.SocketAddress(opts.Argv0)
	if err != nil {
		return daemon.OutcomeFailed, err
	}

	runID := uuid.NewString()
	logger, closeLog, err := newLogger(cfg, opts, runID)
	if err != nil {
		return daemon.OutcomeFailed, fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	runtime := opts.Runtime
	if runtime == nil {
		runtime = enclave.NewPAL(cfg.Enclave.PALLibrary)
	}
	attr := cfg.EnclaveAttr()
	logger.Info("exec server starting",
		logging.String(logging.FieldEventType, "daemon_starting"),
		logging.String(logging.FieldSocket, socketPath),
		logging.String("instance_dir", attr.InstanceDir),
		logging.String("enclave_log_level", string(attr.LogLevel)),
		logging.String("pal_library", cfg.Enclave.PALLibrary),
		logging.Int("pid", os.Getpid()),
	)

	prober := endpoint.NewProber(dialChecker, cfg.ProbeTimeout(), logger)
	coordOpts := daemon.Options{
		SocketPath:  socketPath,
		Attr:        attr,
		StopTimeout: cfg.StopTimeout(),
		StartupLock: cfg.Server.StartupLock,
		LockWait:    cfg.LockWait(),
		Stdout:      opts.Stdout,
		RunID:       runID,
	}
	if cfg.Server.PIDFile {
		coordOpts.PIDPath = endpoint.PIDPath(socketPath)
	}
	coord, err := daemon.NewCoordinator(coordOpts, prober, runtime, logger)
	if err != nil {
		return daemon.OutcomeFailed, fmt.Errorf("create coordinator: %w", err)
	}

	outcome, err := coord.Run(signalCtx)
	if err != nil {
		logging.ErrorWithContext(logger, "exec server failed", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldState, coord.State().String()))
		return outcome, err
	}
	logger.Info("exec server exiting",
		logging.String(logging.FieldEventType, "daemon_exit"),
		logging.String("outcome", outcome.String()))
	return outcome, nil
}

func dialChecker(path string) (endpoint.Checker, error) {
	return ipc.Dial(path)
}

func newLogger(cfg *config.Config, opts Options, runID string) (*slog.Logger, func() error, error) {
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	format := cfg.Logging.Format
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	outputs := []string{"stderr"}
	if cfg.Logging.File != "" {
		outputs = append(outputs, cfg.Logging.File)
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      format,
		OutputPaths: outputs,
		Development: opts.Development,
		RunID:       runID,
	})
}
