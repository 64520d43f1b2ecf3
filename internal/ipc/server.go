package ipc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"occlum-exec/internal/logging"
)

// Controller is the daemon side the RPC handlers act on.
type Controller interface {
	// RequestStop flips the daemon to stopped and reports whether this call
	// made the transition. It must not block.
	RequestStop() bool
	Status() StatusResponse
}

// Server serves the health and control services on an already bound
// listener.
type Server struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
	logger   *slog.Logger

	served atomic.Bool
	closed atomic.Bool
	wg     sync.WaitGroup

	// statusMu orders MarkReady against a Stop RPC so a stopping daemon
	// never reports SERVING again.
	statusMu sync.Mutex
	stopping bool
}

// NewServer registers services for ctrl on listener. Nothing is accepted
// until Serve.
func NewServer(listener net.Listener, ctrl Controller, logger *slog.Logger) (*Server, error) {
	if listener == nil {
		return nil, errors.New("ipc server requires listener")
	}
	if ctrl == nil {
		return nil, errors.New("ipc server requires controller")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(logRequests(logger)))
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		listener: listener,
		grpc:     grpcServer,
		health:   healthServer,
		logger:   logger,
	}
	grpcServer.RegisterService(&controlServiceDesc, &service{ctrl: ctrl, server: s, logger: logger})
	return s, nil
}

// Addr reports the socket the server is bound to.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve starts accepting connections in the background. Health checks are
// answered from here on with NOT_SERVING until MarkReady, so a prober sees
// the daemon as live while it is still initializing.
func (s *Server) Serve() {
	if s.closed.Load() || !s.served.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debug("IPC server listening", logging.String(logging.FieldSocket, s.Addr()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.grpc.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logging.WarnWithContext(s.logger, "ipc server exited", "ipc_serve_failed",
				logging.Error(err),
				logging.String(logging.FieldSocket, s.Addr()),
				logging.String(logging.FieldImpact, "clients can no longer reach the daemon"),
				logging.String(logging.FieldErrorHint, "stop the daemon and restart it"))
		}
	}()
}

// MarkReady switches the health status to SERVING. It does nothing once a
// Stop RPC has been accepted or the server is closing.
func (s *Server) MarkReady() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.stopping || s.closed.Load() {
		return
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) markStopping() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.stopping = true
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
}

// Close stops accepting connections, waits up to timeout for in-flight calls,
// then forces the remaining ones closed. The socket file is removed with the
// listener.
func (s *Server) Close(timeout time.Duration) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.statusMu.Lock()
	s.health.Shutdown()
	s.statusMu.Unlock()

	if !s.served.Load() {
		s.grpc.Stop()
		_ = s.listener.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	if timeout <= 0 {
		<-done
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			logging.WarnWithContext(s.logger, "graceful stop timed out", "ipc_stop_timeout",
				logging.Duration("timeout", timeout),
				logging.String(logging.FieldImpact, "in-flight calls were cancelled"))
			s.grpc.Stop()
			<-done
		}
	}
	s.wg.Wait()
}

type service struct {
	ctrl   Controller
	server *Server
	logger *slog.Logger
}

func (s *service) Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	stopped := s.ctrl.RequestStop()
	if stopped {
		s.server.markStopping()
	}
	s.logger.Info("stop requested",
		logging.String(logging.FieldEventType, "stop_requested"),
		logging.Bool("transitioned", stopped))
	return stopToStruct(StopResponse{Stopped: stopped}), nil
}

func (s *service) Status(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.ctrl.Status().toStruct()
}

func logRequests(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc handled",
			logging.String("method", info.FullMethod),
			logging.String(logging.FieldCode, status.Code(err).String()),
			logging.Duration("elapsed", time.Since(start)))
		return resp, err
	}
}
