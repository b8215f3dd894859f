//go:build llama

package manager

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	"tutord/internal/registry"
)

// inProcessAdapter loads GGUF weights into this process via go-llama.cpp.
// Compiled only with the 'llama' build tag; default builds stay CGO-free
// and use the stub in adapter_inprocess_stub.go.
type inProcessAdapter struct {
	desc      registry.Descriptor
	modelPath string
	cfg       ManagerConfig
	log       zerolog.Logger

	mu    sync.Mutex
	model *llama.LLama
}

func newInProcessAdapter(desc registry.Descriptor, modelPath string, cfg ManagerConfig) BackendAdapter {
	return &inProcessAdapter{
		desc:      desc,
		modelPath: modelPath,
		cfg:       cfg,
		log:       cfg.Logger.With().Str("adapter", "inprocess").Str("model", desc.Key).Logger(),
	}
}

func (a *inProcessAdapter) Start(ctx context.Context) (ReadyInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.model != nil {
		return ReadyInfo{Key: a.desc.Key}, nil
	}
	if _, err := os.Stat(a.modelPath); err != nil {
		return ReadyInfo{}, ErrLoad(a.desc.Key, err)
	}
	started := time.Now()
	m, err := llama.New(a.modelPath, llama.SetContext(a.desc.ContextSize))
	if err != nil {
		return ReadyInfo{}, ErrLoad(a.desc.Key, err)
	}
	a.model = m
	loadTime := time.Since(started)
	a.log.Info().Dur("load_time", loadTime).Msg("weights loaded")
	return ReadyInfo{Key: a.desc.Key, LoadTime: loadTime}, nil
}

func (a *inProcessAdapter) Generate(ctx context.Context, req GenerationRequest) (GeneratedText, error) {
	a.mu.Lock()
	m := a.model
	a.mu.Unlock()
	if m == nil {
		return GeneratedText{}, ErrNotReady(a.desc.Key)
	}

	prompt, stops := buildPrompt(a.desc.Prompt, req)
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerateTimeout)
	defer cancel()
	m.SetTokenCallback(func(string) bool { return callCtx.Err() == nil })

	started := time.Now()
	text, err := m.Predict(prompt,
		llama.SetTokens(req.MaxNewTokens),
		llama.SetThreads(a.cfg.Threads),
		llama.SetTemperature(float32(req.Temperature)),
		llama.SetTopP(float32(req.TopP)),
		llama.SetStopWords(stops...),
	)
	if err != nil {
		if callCtx.Err() != nil {
			err = callCtx.Err()
		}
		return GeneratedText{}, ErrInference(a.desc.Key, err)
	}
	return GeneratedText{Text: text, Duration: time.Since(started)}, nil
}

func (a *inProcessAdapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.model == nil {
		return
	}
	a.model.Free()
	a.model = nil
	// Nudge the runtime so device buffers are actually returned.
	runtime.GC()
	a.log.Info().Msg("weights released")
}

// Reclaim drops what cached memory it can without unloading. For the
// in-process backend the model stays resident; only GC pressure is
// applied.
func (a *inProcessAdapter) Reclaim() {
	runtime.GC()
	a.log.Debug().Msg("memory reclaim pass")
}
