package ipc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// StopResponse reports whether the Stop call flipped the daemon to stopped.
// A second Stop is acknowledged with Stopped=false.
type StopResponse struct {
	Stopped bool
}

// StatusResponse describes the running daemon.
type StatusResponse struct {
	Running     bool
	PID         int
	RunID       string
	Socket      string
	InstanceDir string
	State       string
	StartedAt   time.Time
}

func (r StatusResponse) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"running":      r.Running,
		"pid":          r.PID,
		"run_id":       r.RunID,
		"socket":       r.Socket,
		"instance_dir": r.InstanceDir,
		"state":        r.State,
	}
	if !r.StartedAt.IsZero() {
		fields["started_at"] = r.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return out, nil
}

func statusFromStruct(in *structpb.Struct) (*StatusResponse, error) {
	fields := in.GetFields()
	resp := &StatusResponse{
		Running:     fields["running"].GetBoolValue(),
		PID:         int(fields["pid"].GetNumberValue()),
		RunID:       fields["run_id"].GetStringValue(),
		Socket:      fields["socket"].GetStringValue(),
		InstanceDir: fields["instance_dir"].GetStringValue(),
		State:       fields["state"].GetStringValue(),
	}
	if raw := fields["started_at"].GetStringValue(); raw != "" {
		startedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("decode status started_at: %w", err)
		}
		resp.StartedAt = startedAt
	}
	return resp, nil
}

func stopToStruct(r StopResponse) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"stopped": structpb.NewBoolValue(r.Stopped),
	}}
}

func stopFromStruct(in *structpb.Struct) *StopResponse {
	return &StopResponse{Stopped: in.GetFields()["stopped"].GetBoolValue()}
}
