//go:build llama

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"coderd/internal/engine"
	"coderd/internal/httpapi"
	"coderd/internal/llamacpp"
	"coderd/internal/registry"
	"coderd/internal/threads"
	"coderd/pkg/types"
)

// modelPath returns the GGUF model named by CODERD_TEST_MODEL or skips.
func modelPath(t *testing.T) string {
	t.Helper()
	p := strings.TrimSpace(os.Getenv("CODERD_TEST_MODEL"))
	if p == "" {
		t.Skip("CODERD_TEST_MODEL not set; skipping real-model test")
	}
	if _, err := os.Stat(p); err != nil {
		t.Skipf("CODERD_TEST_MODEL %q: %v", p, err)
	}
	return p
}

// backend adapts an engine to httpapi.Service for a single model file.
type backend struct {
	*engine.Engine
	events *engine.MemoryPublisher
	model  types.Model
}

func newBackend(t *testing.T, path string) *backend {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.ContextSize = 2048
	e := engine.New(llamacpp.New(), cfg)
	e.SetLogger(zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel))
	mem := engine.NewMemoryPublisher(32)
	e.SetEventPublisher(mem)
	t.Cleanup(e.Release)
	return &backend{Engine: e, events: mem, model: types.Model{ID: "test.gguf", Name: "test", Path: path}}
}

func (b *backend) ListModels() []types.Model { return []types.Model{b.model} }

func (b *backend) ResolveModel(ref string) (string, error) {
	return registry.Resolve(b.ListModels(), ref)
}

func (b *backend) RecentEvents() []types.Event {
	var out []types.Event
	for _, ev := range b.events.Events() {
		out = append(out, types.Event{Name: ev.Name, Model: ev.Model, TimeUnixMs: ev.Time.UnixMilli(), Fields: ev.Fields})
	}
	return out
}

var serverOnce sync.Once

func newServer(t *testing.T, b *backend) *httptest.Server {
	t.Helper()
	serverOnce.Do(func() { httpapi.SetLogger(zerolog.Nop()) })
	srv := httptest.NewServer(httpapi.NewMux(b))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if out != nil && len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v body=%s", url, err, string(b))
		}
	}
	return resp.StatusCode
}

func recommendedThreads() int { return threads.Recommend().Threads }
