package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/history"
	"tutord/internal/httpapi"
	"tutord/internal/manager"
	"tutord/internal/registry"
	"tutord/pkg/types"
)

// TestLiveChat_Haiku runs a real chat turn through a spawned
// llama-server. Skips unless LLAMA_BIN points at a llama-server binary
// and ~/models/llm holds the GGUF for one of the builtin chat models.
func TestLiveChat_Haiku(t *testing.T) {
	llamaBin := strings.TrimSpace(os.Getenv("LLAMA_BIN"))
	if llamaBin == "" {
		t.Skip("LLAMA_BIN not set; skipping live chat test")
	}
	home, _ := os.UserHomeDir()
	modelsDir := filepath.Join(home, "models", "llm")

	reg := registry.New(registry.Builtin(), registry.RuntimeInfo{})
	var modelKey string
	for _, d := range reg.List(registry.RoleChat) {
		if d.Backend != registry.BackendSubprocess {
			continue
		}
		if _, err := os.Stat(filepath.Join(modelsDir, d.ModelFile)); err == nil {
			modelKey = d.Key
			break
		}
	}
	if modelKey == "" {
		t.Skip("no builtin chat GGUF under ~/models/llm; skipping live chat test")
	}

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:        reg,
		ModelsDir:       modelsDir,
		ServerBin:       llamaBin,
		StartTimeout:    3 * time.Minute,
		GenerateTimeout: 2 * time.Minute,
		Logger:          zerolog.Nop(),
	})
	t.Cleanup(mgr.Close)
	srv := httptest.NewServer(httpapi.NewMux(httpapi.Deps{
		Service: mgr,
		History: history.NewStore(zerolog.Nop()),
		Log:     zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)

	resp, body := httpPostJSON(t, srv.URL+"/api/models/activate", types.ActivateRequest{
		Model: modelKey, Role: "chat",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: %d %s", resp.StatusCode, body)
	}

	resp, body = httpPostJSON(t, srv.URL+"/api/chat", types.ChatRequest{
		Message:      "Write a 3-line haiku about the ocean.",
		MaxNewTokens: 128,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: %d %s", resp.StatusCode, body)
	}
	var out types.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("chat json: %v", err)
	}
	if strings.TrimSpace(out.Response) == "" || out.SessionID == "" {
		t.Fatalf("chat response: %+v", out)
	}
	t.Logf("model haiku:\n%s", out.Response)
}
