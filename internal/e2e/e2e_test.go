//go:build llama

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"coderd/internal/engine"
	"coderd/internal/uiprompt"
	"coderd/pkg/types"
)

func TestE2E_EngineLifecycle(t *testing.T) {
	path := modelPath(t)
	b := newBackend(t, path)

	if got := b.Generate("hello", 8); got != engine.Result(engine.ErrNotInitialized) {
		t.Fatalf("generate before init = %q", got)
	}
	if !b.Init(path, 2) {
		t.Fatalf("init failed: %s", b.Status().LastError)
	}
	out := b.Generate("What is 2+2?", 32)
	if out == "" || engine.IsError(out) {
		t.Fatalf("generate failed: %q", out)
	}

	// Re-init with the same file replaces the model and keeps working.
	if !b.Init(path, 1) {
		t.Fatalf("re-init failed: %s", b.Status().LastError)
	}
	if st := b.Status(); st.InitsTotal != 2 || st.Threads != 1 {
		t.Fatalf("unexpected status after re-init: %+v", st)
	}

	b.Release()
	if got := b.Generate("hello", 8); got != engine.Result(engine.ErrNotInitialized) {
		t.Fatalf("generate after release = %q", got)
	}
	b.Release()
}

func TestE2E_PromptTooLong(t *testing.T) {
	path := modelPath(t)
	b := newBackend(t, path)
	if !b.Init(path, recommendedThreads()) {
		t.Fatalf("init failed: %s", b.Status().LastError)
	}
	huge := strings.Repeat("lorem ipsum dolor sit amet ", 4000)
	if got := b.Generate(huge, 8); got != engine.Result(engine.ErrPromptTooLong) {
		t.Fatalf("expected prompt-too-long failure, got %q", got)
	}
	// The engine stays usable after the rejected prompt.
	if got := b.Generate("hi", 4); got == engine.Result(engine.ErrNotInitialized) {
		t.Fatalf("engine lost its model: %q", got)
	}
}

func TestE2E_HTTPFlow(t *testing.T) {
	path := modelPath(t)
	b := newBackend(t, path)
	srv := newServer(t, b)

	var initResp types.InitResponse
	if code := postJSON(t, srv.URL+"/init", `{"model":"test"}`, &initResp); code != http.StatusOK || !initResp.OK {
		t.Fatalf("/init code=%d ok=%v last_error=%s", code, initResp.OK, b.Status().LastError)
	}

	var gen types.GenerateResponse
	if code := postJSON(t, srv.URL+"/generate", `{"prompt":"<h1>Hi</h1>","max_tokens":16}`, &gen); code != http.StatusOK {
		t.Fatalf("/generate code=%d", code)
	}
	if gen.Text == "" || gen.IsError != engine.IsError(gen.Text) {
		t.Fatalf("inconsistent generate response: %+v", gen)
	}

	var ui types.UIResponse
	if code := postJSON(t, srv.URL+"/ui", `{"agent_text":"Bill of 1,240 due 5 Nov","minimal":true,"max_tokens":64}`, &ui); code != http.StatusOK {
		t.Fatalf("/ui code=%d", code)
	}
	if ui.HTML != uiprompt.SanitizeHTML(ui.Raw) {
		t.Fatalf("html is not the sanitized raw output")
	}

	if code := postJSON(t, srv.URL+"/release", `{}`, nil); code != http.StatusNoContent {
		t.Fatalf("/release code=%d", code)
	}
	if b.Ready() {
		t.Fatalf("engine still ready after release")
	}
	names := map[string]bool{}
	for _, ev := range b.RecentEvents() {
		names[ev.Name] = true
	}
	for _, want := range []string{engine.EventInitReady, engine.EventGenerateDone, engine.EventRelease} {
		if !names[want] {
			t.Fatalf("missing event %s in %v", want, names)
		}
	}
}
