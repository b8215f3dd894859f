package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/evaluator"
	"tutord/internal/history"
	"tutord/internal/manager"
	"tutord/internal/registry"
	"tutord/pkg/types"
)

// fakeService implements Service with scripted behavior.
type fakeService struct {
	reg         *registry.Registry
	activateErr error
	generateErr error
	generated   manager.GeneratedText
	lastGen     manager.GenerationRequest
	status      types.StatusResponse
	cleared     bool
}

func (f *fakeService) Activate(_ context.Context, key string, role registry.Role) (manager.ReadyInfo, error) {
	if f.activateErr != nil {
		return manager.ReadyInfo{}, f.activateErr
	}
	return manager.ReadyInfo{Key: key, Endpoint: "http://127.0.0.1:8081", LoadTime: 2 * time.Second}, nil
}

func (f *fakeService) Deactivate(key string) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	return nil
}

func (f *fakeService) Generate(_ context.Context, _ registry.Role, req manager.GenerationRequest) (manager.GeneratedText, error) {
	f.lastGen = req
	if f.generateErr != nil {
		return manager.GeneratedText{}, f.generateErr
	}
	return f.generated, nil
}

func (f *fakeService) Status() types.StatusResponse { return f.status }
func (f *fakeService) Registry() *registry.Registry { return f.reg }
func (f *fakeService) ClearResources()              { f.cleared = true }

func newFakeService() *fakeService {
	return &fakeService{
		reg:       registry.New(registry.Builtin(), registry.RuntimeInfo{LibraryVersion: "4.49.0"}),
		generated: manager.GeneratedText{Text: "The answer is here.", TokensGenerated: 12, Duration: time.Second},
		status:    types.StatusResponse{Roles: map[string]string{}},
	}
}

func newTestServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	mux := NewMux(Deps{
		Service:   svc,
		History:   history.NewStore(zerolog.Nop()),
		Evaluator: evaluator.New(nil, zerolog.Nop()),
		Log:       zerolog.Nop(),
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestReadyz(t *testing.T) {
	svc := newFakeService()
	ts := newTestServer(t, svc)

	resp, _ := http.Get(ts.URL + "/readyz")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unbound chat role: status = %d", resp.StatusCode)
	}

	svc.status = types.StatusResponse{
		Roles:     map[string]string{"chat": "phi-3.5"},
		Instances: []types.InstanceStatus{{Model: "phi-3.5", State: "ready"}},
	}
	resp, _ = http.Get(ts.URL + "/readyz")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready chat model: status = %d", resp.StatusCode)
	}
}

func TestModelsListAndRoleFilter(t *testing.T) {
	ts := newTestServer(t, newFakeService())

	resp, err := http.Get(ts.URL + "/api/models")
	if err != nil {
		t.Fatal(err)
	}
	all := decodeBody[types.ModelsResponse](t, resp)
	if len(all.Models) == 0 {
		t.Fatal("no models listed")
	}

	resp, err = http.Get(ts.URL + "/api/models?role=evaluation")
	if err != nil {
		t.Fatal(err)
	}
	evalOnly := decodeBody[types.ModelsResponse](t, resp)
	for _, m := range evalOnly.Models {
		found := false
		for _, r := range m.Roles {
			if r == "evaluation" {
				found = true
			}
		}
		if !found {
			t.Fatalf("model %s does not serve evaluation", m.Key)
		}
	}

	resp, _ = http.Get(ts.URL + "/api/models?role=banana")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad role: status = %d", resp.StatusCode)
	}
}

func TestActivateSuccess(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp := postJSON(t, ts.URL+"/api/models/activate", types.ActivateRequest{Model: "gpt-oss-20b", Role: "chat"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeBody[types.ActivateResponse](t, resp)
	if out.Model != "gpt-oss-20b" || out.Endpoint == "" || out.LoadSeconds != 2.0 {
		t.Fatalf("response = %+v", out)
	}
}

func TestActivateErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown model", manager.ErrUnknownModel("nope"), http.StatusNotFound},
		{"incompatible", manager.ErrIncompatibleModel("m", "exclusive conflict"), http.StatusConflict},
		{"launch failed", manager.ErrLaunch("m", context.DeadlineExceeded, "boom"), http.StatusBadGateway},
		{"health timeout", manager.ErrHealthCheckTimeout("m", "120s"), http.StatusBadGateway},
		{"load failed", manager.ErrLoad("m", context.DeadlineExceeded), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService()
			svc.activateErr = tc.err
			ts := newTestServer(t, svc)
			resp := postJSON(t, ts.URL+"/api/models/activate", types.ActivateRequest{Model: "m"})
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestActivateValidation(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp := postJSON(t, ts.URL+"/api/models/activate", types.ActivateRequest{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing model: status = %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+"/api/models/activate", types.ActivateRequest{Model: "m", Role: "banana"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad role: status = %d", resp.StatusCode)
	}
}

func TestChatHappyPath(t *testing.T) {
	svc := newFakeService()
	ts := newTestServer(t, svc)
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "Explain photosynthesis to a ten year old student please"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeBody[types.ChatResponse](t, resp)
	if out.Response != "The answer is here." || out.SessionID == "" {
		t.Fatalf("response = %+v", out)
	}
	if svc.lastGen.SystemPrompt == "" {
		t.Fatal("system prompt was not assembled")
	}
}

func TestChatGreetingGetsTightParams(t *testing.T) {
	svc := newFakeService()
	ts := newTestServer(t, svc)
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "hello", MaxNewTokens: 1024, Temperature: 0.9})
	resp.Body.Close()
	if svc.lastGen.MaxNewTokens != 80 {
		t.Fatalf("max tokens = %d, want 80", svc.lastGen.MaxNewTokens)
	}
	if svc.lastGen.Temperature != 0.3 {
		t.Fatalf("temperature = %v, want 0.3", svc.lastGen.Temperature)
	}
}

func TestChatSessionContinuity(t *testing.T) {
	svc := newFakeService()
	ts := newTestServer(t, svc)
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "why is the sky blue exactly"})
	first := decodeBody[types.ChatResponse](t, resp)

	resp = postJSON(t, ts.URL+"/api/chat", types.ChatRequest{SessionID: first.SessionID, Message: "can you explain that again more simply"})
	second := decodeBody[types.ChatResponse](t, resp)
	if second.SessionID != first.SessionID {
		t.Fatalf("session changed: %s -> %s", first.SessionID, second.SessionID)
	}
	if len(svc.lastGen.History) != 2 {
		t.Fatalf("history turns = %d, want 2", len(svc.lastGen.History))
	}
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message: status = %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "hi", Language: "xx"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad language: status = %d", resp.StatusCode)
	}

	raw, _ := http.Post(ts.URL+"/api/chat", "text/plain", bytes.NewReader([]byte("hi")))
	raw.Body.Close()
	if raw.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("wrong content type: status = %d", raw.StatusCode)
	}
}

func TestChatNotReadyMapsTo503(t *testing.T) {
	svc := newFakeService()
	svc.generateErr = manager.ErrNotReady("no model bound to role chat")
	ts := newTestServer(t, svc)
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "what is gravity"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp := postJSON(t, ts.URL+"/api/evaluate", types.EvaluateRequest{
		Question:       "What is a group of lines in a poem called?",
		StudentAnswer:  "stanza",
		ExpectedAnswer: "stanza",
		Criteria:       []string{"stanza"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeBody[types.EvaluateResponse](t, resp)
	if !out.Correct || out.Confidence != 1.0 {
		t.Fatalf("response = %+v", out)
	}
}

func TestLanguagesEndpoint(t *testing.T) {
	ts := newTestServer(t, newFakeService())
	resp, err := http.Get(ts.URL + "/api/languages")
	if err != nil {
		t.Fatal(err)
	}
	out := decodeBody[map[string][]map[string]string](t, resp)
	if len(out["languages"]) != 13 {
		t.Fatalf("languages = %d, want 13", len(out["languages"]))
	}
}

func TestClearMemory(t *testing.T) {
	svc := newFakeService()
	ts := newTestServer(t, svc)
	resp := postJSON(t, ts.URL+"/api/chat", types.ChatRequest{Message: "what is gravity exactly"})
	resp.Body.Close()

	resp, err := http.Post(ts.URL+"/api/clear-memory", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	out := decodeBody[map[string]any](t, resp)
	if out["sessions_cleared"].(float64) != 1 {
		t.Fatalf("sessions_cleared = %v", out["sessions_cleared"])
	}
	if !svc.cleared {
		t.Fatal("ClearResources was not called")
	}
}

func TestManagerStatusMapping(t *testing.T) {
	if got := managerStatus(manager.ErrInference("m", context.DeadlineExceeded)); got != http.StatusBadGateway {
		t.Fatalf("inference error status = %d", got)
	}
	if got := managerStatus(context.DeadlineExceeded); got != http.StatusInternalServerError {
		t.Fatalf("unknown error status = %d", got)
	}
}
