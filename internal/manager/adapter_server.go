package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/registry"
)

// tailWriter keeps the last max bytes written to it. Used to capture a
// diagnostic tail of the child's stdout/stderr without unbounded growth.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailWriter(max int) *tailWriter { return &tailWriter{max: max} }

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// serverAdapter spawns and supervises one llama-server process for a
// subprocess-server model family.
type serverAdapter struct {
	desc      registry.Descriptor
	modelPath string
	cfg       ManagerConfig
	log       zerolog.Logger
	client    *http.Client

	mu      sync.Mutex
	cmd     *exec.Cmd
	baseURL string
	ready   bool
	tail    *tailWriter
	waitCh  chan error
}

func newServerAdapter(desc registry.Descriptor, modelPath string, cfg ManagerConfig) BackendAdapter {
	// Timeout stays 0: every request carries a context deadline.
	return &serverAdapter{
		desc:      desc,
		modelPath: modelPath,
		cfg:       cfg,
		log:       cfg.Logger.With().Str("adapter", "server").Str("model", desc.Key).Logger(),
		client:    &http.Client{Timeout: 0},
	}
}

func (a *serverAdapter) Start(ctx context.Context) (ReadyInfo, error) {
	a.mu.Lock()
	if a.cmd != nil && a.ready {
		base := a.baseURL
		a.mu.Unlock()
		return ReadyInfo{Key: a.desc.Key, Endpoint: base}, nil
	}
	a.mu.Unlock()

	if _, err := os.Stat(a.modelPath); err != nil {
		return ReadyInfo{}, ErrLaunch(a.desc.Key, fmt.Errorf("model file: %w", err), "")
	}
	if _, err := os.Stat(a.cfg.ServerBin); err != nil {
		return ReadyInfo{}, ErrLaunch(a.desc.Key, fmt.Errorf("server binary: %w", err), "")
	}

	baseURL := fmt.Sprintf("http://%s:%d", a.cfg.Host, a.desc.Port)
	args := []string{
		"-m", a.modelPath,
		"-c", fmt.Sprint(a.desc.ContextSize),
		"-ngl", "-1", // offload all layers to the GPU
		"--host", a.cfg.Host,
		"--port", fmt.Sprint(a.desc.Port),
	}

	tail := newTailWriter(4096)
	cmd := exec.Command(a.cfg.ServerBin, args...)
	cmd.Stdout = tail
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return ReadyInfo{}, ErrLaunch(a.desc.Key, err, "")
	}
	a.log.Info().Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server started, waiting for health")
	a.cfg.Publisher.Publish(Event{Name: "spawn_start", Model: a.desc.Key, Fields: map[string]any{"pid": cmd.Process.Pid, "port": a.desc.Port}})

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	a.mu.Lock()
	a.cmd = cmd
	a.baseURL = baseURL
	a.ready = false
	a.tail = tail
	a.waitCh = waitCh
	a.mu.Unlock()

	started := time.Now()
	deadline := started.Add(a.cfg.StartTimeout)
	// Large models take 60-120s to load; a ~1s poll cadence is
	// deliberate so we don't hammer the health endpoint meanwhile.
	for {
		select {
		case werr := <-waitCh:
			a.clear()
			if werr == nil {
				werr = errors.New("process exited before becoming healthy")
			}
			a.cfg.Publisher.Publish(Event{Name: "spawn_exit", Model: a.desc.Key, Fields: map[string]any{"error": werr.Error()}})
			return ReadyInfo{}, ErrLaunch(a.desc.Key, werr, tail.String())
		case <-ctx.Done():
			a.Stop()
			return ReadyInfo{}, ErrLaunch(a.desc.Key, ctx.Err(), "")
		default:
		}

		if a.healthy(baseURL) {
			break
		}
		if time.Now().After(deadline) {
			a.Stop()
			a.cfg.Publisher.Publish(Event{Name: "spawn_timeout", Model: a.desc.Key, Fields: map[string]any{}})
			return ReadyInfo{}, ErrHealthCheckTimeout(a.desc.Key, a.cfg.StartTimeout.String())
		}
		select {
		case <-time.After(a.cfg.HealthPollInterval):
		case <-ctx.Done():
			a.Stop()
			return ReadyInfo{}, ErrLaunch(a.desc.Key, ctx.Err(), "")
		}
	}

	a.mu.Lock()
	a.ready = true
	a.mu.Unlock()
	loadTime := time.Since(started)
	a.log.Info().Dur("load_time", loadTime).Msg("llama-server healthy")
	a.cfg.Publisher.Publish(Event{Name: "spawn_ready", Model: a.desc.Key, Fields: map[string]any{"url": baseURL}})
	return ReadyInfo{Key: a.desc.Key, Endpoint: baseURL, LoadTime: loadTime}, nil
}

func (a *serverAdapter) healthy(baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// completionRequest is the llama-server /completion payload.
type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Content         string `json:"content"`
	TokensPredicted int    `json:"tokens_predicted"`
}

func (a *serverAdapter) Generate(ctx context.Context, req GenerationRequest) (GeneratedText, error) {
	a.mu.Lock()
	ready := a.ready
	baseURL := a.baseURL
	a.mu.Unlock()
	if !ready {
		return GeneratedText{}, ErrNotReady(a.desc.Key)
	}

	prompt, stops := buildPrompt(a.desc.Prompt, req)
	payload, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    req.MaxNewTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        stops,
	})
	if err != nil {
		return GeneratedText{}, ErrInference(a.desc.Key, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.GenerateTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, baseURL+"/completion", bytes.NewReader(payload))
	if err != nil {
		return GeneratedText{}, ErrInference(a.desc.Key, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return GeneratedText{}, ErrInference(a.desc.Key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return GeneratedText{}, ErrInference(a.desc.Key, fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body)))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return GeneratedText{}, ErrInference(a.desc.Key, fmt.Errorf("malformed completion payload: %w", err))
	}
	dur := time.Since(started)
	a.log.Debug().Int("tokens", out.TokensPredicted).Dur("duration", dur).Msg("completion done")
	return GeneratedText{
		Text:            out.Content,
		TokensGenerated: out.TokensPredicted,
		Duration:        dur,
	}, nil
}

// Stop terminates the child process: graceful SIGTERM first, SIGKILL
// after the stop grace period. Safe to call repeatedly and from exit
// paths; it logs failures instead of returning them.
func (a *serverAdapter) Stop() {
	a.mu.Lock()
	cmd := a.cmd
	waitCh := a.waitCh
	a.cmd = nil
	a.ready = false
	a.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		a.log.Debug().Err(err).Msg("terminate signal failed")
	}
	select {
	case <-waitCh:
	case <-time.After(a.cfg.StopGrace):
		a.log.Warn().Int("pid", cmd.Process.Pid).Msg("llama-server did not exit in time, killing")
		if err := cmd.Process.Kill(); err != nil {
			a.log.Debug().Err(err).Msg("kill failed")
		}
		<-waitCh
	}
	a.log.Info().Msg("llama-server stopped")
	a.cfg.Publisher.Publish(Event{Name: "spawn_stop", Model: a.desc.Key, Fields: map[string]any{}})
}

func (a *serverAdapter) clear() {
	a.mu.Lock()
	a.cmd = nil
	a.ready = false
	a.mu.Unlock()
}
