// Package ipc exposes the daemon over gRPC on its Unix socket and ships the
// matching client used by the probe and the CLI.
//
// Two services are registered: the standard grpc.health.v1 Health service,
// whose Check call is the liveness touchpoint, and occlum.exec.Control, which
// carries Stop and Status. Control payloads are well-known protobuf types
// (Empty and Struct) so no generated code is needed.
package ipc
