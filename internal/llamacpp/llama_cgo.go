//go:build llama

package llamacpp

// cgo link directives for the in-process llama runtime.
// - rpath of $ORIGIN so the loader finds libllama.so and libggml*.so next to
//   the built binary (./bin).
// - -L${SRCDIR}/../../bin so the linker finds libllama.so at link time.
// - llama.h is taken from third_party/llama.cpp or the default include path.
/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/llama.cpp/include -I${SRCDIR}/../../third_party/llama.cpp/ggml/include
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
