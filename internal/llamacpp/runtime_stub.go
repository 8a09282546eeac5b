//go:build !llama

package llamacpp

// This file provides a no-CGO stub of the runtime. It is compiled when the
// 'llama' build tag is NOT set, keeping default builds and CI CGO-free. The
// real binding lives in runtime_llama.go.

import "coderd/internal/engine"

// Available reports whether this binary was built with the native runtime.
func Available() bool { return false }

// Runtime refuses to load models without the 'llama' build tag.
type Runtime struct{}

func New() *Runtime { return &Runtime{} }

func (*Runtime) BackendInit() error { return nil }
func (*Runtime) BackendFree() {}

func (*Runtime) LoadModel(string, engine.ModelParams) (engine.Model, error) {
	return nil, engine.ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
