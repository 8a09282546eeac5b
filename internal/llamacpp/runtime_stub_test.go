//go:build !llama

package llamacpp

import (
	"testing"

	"coderd/internal/engine"
)

func TestStubRefusesToLoad(t *testing.T) {
	if Available() {
		t.Fatalf("stub must report unavailable")
	}
	rt := New()
	if err := rt.BackendInit(); err != nil {
		t.Fatalf("backend init: %v", err)
	}
	defer rt.BackendFree()
	m, err := rt.LoadModel("/models/x.gguf", engine.ModelParams{UseMmap: true})
	if m != nil || !engine.IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got model=%v err=%v", m, err)
	}
}

func TestStubEngineInitFails(t *testing.T) {
	e := engine.New(New(), engine.DefaultConfig())
	if e.Init("/models/x.gguf", 2) {
		t.Fatalf("init must fail without the native runtime")
	}
	if got := e.Generate("hi", 8); got != "[error] Model is not initialized." {
		t.Fatalf("got %q", got)
	}
}
