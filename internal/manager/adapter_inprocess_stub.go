//go:build !llama

package manager

import (
	"context"
	"errors"

	"tutord/internal/registry"
)

// No-CGO stub for the in-process adapter, compiled when the 'llama'
// build tag is NOT set. Keeps default builds and CI CGO-free; the real
// adapter lives in adapter_inprocess.go.

type inProcessAdapter struct {
	desc registry.Descriptor
}

func newInProcessAdapter(desc registry.Descriptor, modelPath string, cfg ManagerConfig) BackendAdapter {
	return &inProcessAdapter{desc: desc}
}

func (a *inProcessAdapter) Start(ctx context.Context) (ReadyInfo, error) {
	return ReadyInfo{}, ErrLoad(a.desc.Key, errors.New("in-process inference not built (missing 'llama' build tag)"))
}

func (a *inProcessAdapter) Generate(ctx context.Context, req GenerationRequest) (GeneratedText, error) {
	return GeneratedText{}, ErrNotReady(a.desc.Key)
}

func (a *inProcessAdapter) Stop() {}
