//go:build llama

package llamacpp

/*
#include <stdlib.h>
#include "llama.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"coderd/internal/engine"
)

// Available reports whether this binary was built with the native runtime.
func Available() bool { return true }

// Runtime binds engine.Runtime to llama.cpp.
type Runtime struct{}

// New returns the llama.cpp runtime.
func New() *Runtime { return &Runtime{} }

func (*Runtime) BackendInit() error {
	C.llama_backend_init()
	return nil
}

func (*Runtime) BackendFree() { C.llama_backend_free() }

func (*Runtime) LoadModel(path string, p engine.ModelParams) (engine.Model, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	params := C.llama_model_default_params()
	params.use_mmap = C.bool(p.UseMmap)
	params.use_mlock = C.bool(p.UseMlock)
	if p.GPULayers >= 0 {
		params.n_gpu_layers = C.int32_t(p.GPULayers)
	}
	m := C.llama_model_load_from_file(cpath, params)
	if m == nil {
		return nil, fmt.Errorf("llama_model_load_from_file returned NULL for %s", path)
	}
	return &model{ptr: m}, nil
}

type model struct {
	ptr *C.struct_llama_model
}

func (m *model) Vocab() engine.Vocab {
	v := C.llama_model_get_vocab(m.ptr)
	if v == nil {
		return nil
	}
	return vocab{ptr: v}
}

func (m *model) NewContext(p engine.ContextParams) (engine.Context, error) {
	params := C.llama_context_default_params()
	params.n_ctx = C.uint32_t(p.ContextSize)
	params.n_batch = C.uint32_t(p.BatchSize)
	params.n_threads = C.int32_t(p.Threads)
	params.n_threads_batch = C.int32_t(p.ThreadsBatch)

	ctx := C.llama_init_from_model(m.ptr, params)
	if ctx == nil {
		return nil, errors.New("llama_init_from_model returned NULL")
	}
	nVocab := 0
	if v := C.llama_model_get_vocab(m.ptr); v != nil {
		nVocab = int(C.llama_vocab_n_tokens(v))
	}
	return &llamaContext{
		ptr:    ctx,
		batch:  C.llama_batch_init(C.int32_t(p.BatchSize), 0, 1),
		cap:    p.BatchSize,
		nVocab: nVocab,
	}, nil
}

func (m *model) Close() error {
	if m.ptr == nil {
		return errors.New("model already freed")
	}
	C.llama_model_free(m.ptr)
	m.ptr = nil
	return nil
}

type vocab struct {
	ptr *C.struct_llama_vocab
}

func (v vocab) Tokenize(text string, capacity int, addSpecial, parseSpecial bool) engine.Tokenized {
	if capacity < 1 {
		capacity = 1
	}
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	buf := make([]C.llama_token, capacity)
	n := C.llama_tokenize(v.ptr, ctext, C.int32_t(len(text)), &buf[0], C.int32_t(capacity),
		C.bool(addSpecial), C.bool(parseSpecial))
	switch {
	case n == math.MinInt32:
		// overflow: the token count does not fit in int32
		return engine.Tokenized{}
	case n < 0:
		return engine.Tokenized{Need: int(-n)}
	}
	out := make([]engine.Token, int(n))
	for i := range out {
		out[i] = engine.Token(buf[i])
	}
	return engine.Tokenized{Tokens: out}
}

func (v vocab) Piece(tok engine.Token, capacity int, special bool) engine.Rendered {
	if capacity < 1 {
		capacity = 1
	}
	buf := make([]byte, capacity)
	n := C.llama_token_to_piece(v.ptr, C.llama_token(tok), (*C.char)(unsafe.Pointer(&buf[0])),
		C.int32_t(capacity), 0, C.bool(special))
	if n < 0 {
		return engine.Rendered{Need: int(-n)}
	}
	return engine.Rendered{Text: string(buf[:n])}
}

func (v vocab) EOS() engine.Token { return engine.Token(C.llama_vocab_eos(v.ptr)) }
func (v vocab) Size() int { return int(C.llama_vocab_n_tokens(v.ptr)) }

type llamaContext struct {
	ptr    *C.struct_llama_context
	batch  C.struct_llama_batch
	cap    int
	nVocab int
}

func (c *llamaContext) Size() int { return int(C.llama_n_ctx(c.ptr)) }

func (c *llamaContext) Decode(b *engine.Batch) error {
	n := b.Len()
	if n == 0 {
		return errors.New("empty batch")
	}
	if n > c.cap {
		return fmt.Errorf("batch of %d exceeds capacity %d", n, c.cap)
	}
	tokens := unsafe.Slice(c.batch.token, c.cap)
	pos := unsafe.Slice(c.batch.pos, c.cap)
	nSeq := unsafe.Slice(c.batch.n_seq_id, c.cap)
	seq := unsafe.Slice(c.batch.seq_id, c.cap)
	logits := unsafe.Slice(c.batch.logits, c.cap)
	for i, e := range b.Entries() {
		tokens[i] = C.llama_token(e.Token)
		pos[i] = C.llama_pos(e.Pos)
		nSeq[i] = 1
		*seq[i] = C.llama_seq_id(e.Seq)
		logits[i] = 0
		if e.Logits {
			logits[i] = 1
		}
	}
	c.batch.n_tokens = C.int32_t(n)
	if rc := C.llama_decode(c.ptr, c.batch); rc != 0 {
		return fmt.Errorf("llama_decode returned %d", int(rc))
	}
	return nil
}

func (c *llamaContext) Logits() []float32 {
	p := C.llama_get_logits_ith(c.ptr, -1)
	if p == nil || c.nVocab == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), c.nVocab)
}

func (c *llamaContext) ClearMemory() {
	C.llama_memory_clear(C.llama_get_memory(c.ptr), C.bool(true))
}

func (c *llamaContext) SetThreads(threads, threadsBatch int) {
	C.llama_set_n_threads(c.ptr, C.int32_t(threads), C.int32_t(threadsBatch))
}

func (c *llamaContext) Close() error {
	if c.ptr == nil {
		return errors.New("context already freed")
	}
	C.llama_batch_free(c.batch)
	C.llama_free(c.ptr)
	c.ptr = nil
	return nil
}
