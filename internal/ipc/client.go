package ipc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial prepares a client for the socket at path. The connection is made on
// the first call, so a missing or dead socket surfaces as an Unavailable
// status from that call.
func Dial(path string) (*Client, error) {
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", path)
	}
	conn, err := grpc.NewClient("passthrough:///occlum-exec",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", path, err)
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Check issues a health check. Any reply, whatever the serving status,
// returns nil.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	return err
}

// Serving reports whether the daemon has finished initializing. A daemon
// that is still starting or already stopping answers false.
func (c *Client) Serving(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop(ctx context.Context) (*StopResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, stopMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return stopFromStruct(out), nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, statusMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return statusFromStruct(out)
}
