package preflight

import (
	"context"

	"occlum-exec/internal/config"
	"occlum-exec/internal/endpoint"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Prober reports whether a server already answers on a socket path.
type Prober interface {
	Probe(ctx context.Context, path string) (endpoint.Liveness, error)
}

// RunAll executes every check for cfg against the resolved socket path.
func RunAll(ctx context.Context, cfg *config.Config, socket string, prober Prober) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckInstanceDir(cfg.Enclave.InstanceDir),
		CheckPALLibrary(cfg.Enclave.PALLibrary),
		CheckSocketDirectory(socket),
	}
	if prober != nil {
		results = append(results, CheckEndpoint(ctx, prober, socket))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
