package manager

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/registry"
)

// writeServerScript drops a fake llama-server binary. The script exec's
// so signals land on the real process.
func writeServerScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llama-server")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// serverTestSetup points a subprocess descriptor at the httptest
// listener so the adapter's health and completion calls hit handler.
func serverTestSetup(t *testing.T, handler http.Handler, script string) (registry.Descriptor, ManagerConfig, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}

	modelsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modelsDir, "m.gguf"), []byte("stub weights"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := registry.Descriptor{
		Key: "test-model", Backend: registry.BackendSubprocess,
		Prompt: registry.PromptInstruct, Roles: []registry.Role{registry.RoleChat},
		ModelFile: "m.gguf", Port: port, ContextSize: 512,
	}
	cfg := ManagerConfig{
		ServerBin:          script,
		ModelsDir:          modelsDir,
		Host:               host,
		HealthPollInterval: 10 * time.Millisecond,
		StartTimeout:       2 * time.Second,
		GenerateTimeout:    2 * time.Second,
		StopGrace:          200 * time.Millisecond,
		Logger:             zerolog.Nop(),
	}
	cfg.applyDefaults()
	return desc, cfg, ts
}

func TestServerAdapterStartGenerateStop(t *testing.T) {
	var failCompletions atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/completion", func(w http.ResponseWriter, r *http.Request) {
		if failCompletions.Load() {
			http.Error(w, "slot busy", http.StatusInternalServerError)
			return
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("completion payload: %v", err)
		}
		if !strings.Contains(req.Prompt, "[INST]") || req.NPredict != 64 {
			t.Errorf("completion request = %+v", req)
		}
		json.NewEncoder(w).Encode(completionResponse{Content: "4", TokensPredicted: 3})
	})

	script := writeServerScript(t, "exec sleep 60")
	desc, cfg, ts := serverTestSetup(t, mux, script)

	adapter := newAdapter(desc, cfg)
	t.Cleanup(adapter.Stop)

	info, err := adapter.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Endpoint != ts.URL {
		t.Fatalf("endpoint = %q, want %q", info.Endpoint, ts.URL)
	}

	out, err := adapter.Generate(context.Background(), GenerationRequest{
		Message: "What is 2+2?", MaxNewTokens: 64, Temperature: 0.7, TopP: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "4" || out.TokensGenerated != 3 {
		t.Fatalf("out = %+v", out)
	}

	failCompletions.Store(true)
	_, err = adapter.Generate(context.Background(), GenerationRequest{Message: "again", MaxNewTokens: 64})
	if !IsInferenceError(err) {
		t.Fatalf("err = %v, want inference error", err)
	}
	if !strings.Contains(err.Error(), "slot busy") {
		t.Fatalf("err = %v, want server body included", err)
	}

	adapter.Stop()
	adapter.Stop() // idempotent
	if _, err := adapter.Generate(context.Background(), GenerationRequest{Message: "hi"}); !IsNotReady(err) {
		t.Fatalf("err = %v, want not ready after stop", err)
	}
}

func TestServerAdapterLaunchFailureCapturesTail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	script := writeServerScript(t, "echo model load failed >&2; exit 1")
	desc, cfg, _ := serverTestSetup(t, mux, script)

	adapter := newAdapter(desc, cfg)
	_, err := adapter.Start(context.Background())
	if !IsLaunchError(err) {
		t.Fatalf("err = %v, want launch error", err)
	}
	if diag := LaunchDiagnostics(err); !strings.Contains(diag, "model load failed") {
		t.Fatalf("diagnostics = %q, want captured stderr tail", diag)
	}
}

func TestServerAdapterHealthTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	script := writeServerScript(t, "exec sleep 60")
	desc, cfg, _ := serverTestSetup(t, mux, script)
	cfg.StartTimeout = 150 * time.Millisecond

	adapter := newAdapter(desc, cfg)
	t.Cleanup(adapter.Stop)
	_, err := adapter.Start(context.Background())
	if !IsHealthCheckTimeout(err) {
		t.Fatalf("err = %v, want health check timeout", err)
	}
}

func TestServerAdapterMissingFiles(t *testing.T) {
	mux := http.NewServeMux()
	script := writeServerScript(t, "exec sleep 60")
	desc, cfg, _ := serverTestSetup(t, mux, script)

	missing := desc
	missing.ModelFile = "absent.gguf"
	if _, err := newAdapter(missing, cfg).Start(context.Background()); !IsLaunchError(err) {
		t.Fatalf("missing model: err = %v, want launch error", err)
	}

	noBin := cfg
	noBin.ServerBin = filepath.Join(t.TempDir(), "no-such-binary")
	if _, err := newAdapter(desc, noBin).Start(context.Background()); !IsLaunchError(err) {
		t.Fatalf("missing binary: err = %v, want launch error", err)
	}
}

func TestServerAdapterStartHonorsContextCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	script := writeServerScript(t, "exec sleep 60")
	desc, cfg, _ := serverTestSetup(t, mux, script)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	adapter := newAdapter(desc, cfg)
	t.Cleanup(adapter.Stop)
	_, err := adapter.Start(ctx)
	if !IsLaunchError(err) {
		t.Fatalf("err = %v, want launch error wrapping the cancel", err)
	}
}
