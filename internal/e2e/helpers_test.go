package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/history"
	"tutord/internal/httpapi"
	"tutord/internal/manager"
	"tutord/internal/registry"
)

// newServer wires a real manager with the builtin registry behind the
// full HTTP mux. No backend binaries exist, so activations fail the way
// they would on a misconfigured host; that is the point of these tests.
func newServer(t *testing.T) (*httptest.Server, *manager.Manager) {
	t.Helper()
	reg := registry.New(registry.Builtin(), registry.RuntimeInfo{})
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:           reg,
		ModelsDir:          t.TempDir(),
		ServerBin:          filepath.Join(t.TempDir(), "llama-server"),
		HealthPollInterval: 10 * time.Millisecond,
		StartTimeout:       time.Second,
		Logger:             zerolog.Nop(),
	})
	t.Cleanup(mgr.Close)

	mux := httpapi.NewMux(httpapi.Deps{
		Service: mgr,
		History: history.NewStore(zerolog.Nop()),
		Log:     zerolog.Nop(),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}
