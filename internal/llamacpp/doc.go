// Package llamacpp implements engine.Runtime on top of the llama.cpp C API.
//
// Build with -tags=llama to link libllama; without the tag a stub is compiled
// whose LoadModel returns engine.ErrDependencyUnavailable.
package llamacpp
