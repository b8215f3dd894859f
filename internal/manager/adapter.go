package manager

import (
	"context"
	"path/filepath"

	"tutord/internal/registry"
)

// BackendAdapter is the contract every model family implements. One
// adapter owns exactly one backend (a child process or an in-memory
// model) and is discarded after Stop.
type BackendAdapter interface {
	// Start brings the backend online and blocks until it is healthy
	// or the bounded start timeout elapses.
	Start(ctx context.Context) (ReadyInfo, error)
	// Generate performs one inference call. It must fail fast when the
	// backend is not ready and must respect ctx deadlines.
	Generate(ctx context.Context, req GenerationRequest) (GeneratedText, error)
	// Stop tears the backend down. Idempotent and must never panic or
	// return an error; teardown failures are logged only, since Stop
	// runs from cleanup paths including process-exit handling.
	Stop()
}

// MemoryReclaimer is implemented by adapters that can drop cached
// device memory without a full stop. Subprocess adapters do not; they
// free memory only when their process exits.
type MemoryReclaimer interface {
	Reclaim()
}

// newAdapter constructs the adapter for a descriptor. The cfg must have
// defaults applied.
func newAdapter(desc registry.Descriptor, cfg ManagerConfig) BackendAdapter {
	modelPath := filepath.Join(cfg.ModelsDir, desc.ModelFile)
	switch desc.Backend {
	case registry.BackendInProcess:
		return newInProcessAdapter(desc, modelPath, cfg)
	default:
		return newServerAdapter(desc, modelPath, cfg)
	}
}
