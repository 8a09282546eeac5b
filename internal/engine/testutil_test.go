package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Scripted vocabulary ids. Ids below 256 are bytes.
const (
	tokBOS     Token = 1
	tokA       Token = 256
	tokB       Token = 257
	tokImEnd   Token = 258
	tokC       Token = 259
	tokImStart Token = 260
	tokLong    Token = 261
	tokEOS     Token = 299
	vocabSize        = 300
)

// fakeRuntime counts live native resources and scripts model output.
// The Engine serializes all calls, so no locking is needed here.
type fakeRuntime struct {
	backendInits int
	backendFrees int
	backendErr   error
	loadErr      error
	ctxErr       error
	noVocab      bool

	loads        []string
	liveModels   int
	liveContexts int
	modelParams  ModelParams
	ctxParams    ContextParams

	vocab    *fakeVocab
	ctxSize  int
	script   []Token
	failAt   int // 1-based Decode call that fails on every context; 0 never
	contexts []*fakeContext
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{vocab: newFakeVocab(), ctxSize: 4096}
}

func (r *fakeRuntime) BackendInit() error {
	if r.backendErr != nil {
		return r.backendErr
	}
	r.backendInits++
	return nil
}

func (r *fakeRuntime) BackendFree() { r.backendFrees++ }

func (r *fakeRuntime) liveBackends() int { return r.backendInits - r.backendFrees }

func (r *fakeRuntime) LoadModel(path string, p ModelParams) (Model, error) {
	r.loads = append(r.loads, path)
	r.modelParams = p
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	r.liveModels++
	return &fakeModel{rt: r}, nil
}

// lastContext returns the most recently created context.
func (r *fakeRuntime) lastContext() *fakeContext {
	if len(r.contexts) == 0 {
		return nil
	}
	return r.contexts[len(r.contexts)-1]
}

type fakeModel struct {
	rt     *fakeRuntime
	closed bool
}

func (m *fakeModel) Vocab() Vocab {
	if m.rt.noVocab {
		return nil
	}
	return m.rt.vocab
}

func (m *fakeModel) NewContext(p ContextParams) (Context, error) {
	m.rt.ctxParams = p
	if m.rt.ctxErr != nil {
		return nil, m.rt.ctxErr
	}
	m.rt.liveContexts++
	c := &fakeContext{rt: m.rt, size: m.rt.ctxSize, nBatch: p.BatchSize}
	m.rt.contexts = append(m.rt.contexts, c)
	return c, nil
}

func (m *fakeModel) Close() error {
	if m.closed {
		panic("model closed twice")
	}
	m.closed = true
	m.rt.liveModels--
	return nil
}

type fakeContext struct {
	rt      *fakeRuntime
	size    int
	nBatch  int
	batches [][]BatchEntry
	calls   int
	reads   int
	clears  int
	logits  bool
	threads [2]int
	closed  bool
}

func (c *fakeContext) Size() int { return c.size }

func (c *fakeContext) Decode(b *Batch) error {
	c.calls++
	if c.rt.failAt > 0 && c.calls == c.rt.failAt {
		return errors.New("decode returned 1")
	}
	if c.nBatch > 0 && b.Len() > c.nBatch {
		return fmt.Errorf("batch of %d exceeds capacity %d", b.Len(), c.nBatch)
	}
	entries := append([]BatchEntry(nil), b.Entries()...)
	c.batches = append(c.batches, entries)
	c.logits = entries[len(entries)-1].Logits
	return nil
}

// Logits returns a one-hot vector for the next scripted token, then EOS once
// the script runs out.
func (c *fakeContext) Logits() []float32 {
	if !c.logits {
		return nil
	}
	tok := tokEOS
	if c.reads < len(c.rt.script) {
		tok = c.rt.script[c.reads]
	}
	c.reads++
	out := make([]float32, vocabSize)
	out[tok] = 1
	return out
}

func (c *fakeContext) ClearMemory() {
	c.clears++
	c.reads = 0
	c.logits = false
	c.batches = nil
	c.calls = 0
}

func (c *fakeContext) SetThreads(threads, threadsBatch int) {
	c.threads = [2]int{threads, threadsBatch}
}

func (c *fakeContext) Close() error {
	if c.closed {
		panic("context closed twice")
	}
	c.closed = true
	c.rt.liveContexts--
	return nil
}

// singleDecodes returns the batches submitted after prefill.
func (c *fakeContext) singleDecodes(prefillChunks int) [][]BatchEntry {
	if len(c.batches) <= prefillChunks {
		return nil
	}
	return c.batches[prefillChunks:]
}

type fakeVocab struct {
	pieces   map[Token]string
	specials map[Token]string
	tokenize func(text string) []Token
	panics   bool

	tokenizeCaps []int
	pieceCaps    []int
}

func newFakeVocab() *fakeVocab {
	return &fakeVocab{
		pieces: map[Token]string{
			tokA:    "A",
			tokB:    "B",
			tokC:    "C",
			tokLong: strings.Repeat("x", 300),
		},
		specials: map[Token]string{
			tokImEnd:   imEnd,
			tokImStart: imStart,
		},
	}
}

// byteTokens is the default tokenizer: BOS followed by one token per byte.
func byteTokens(text string) []Token {
	out := []Token{tokBOS}
	for i := 0; i < len(text); i++ {
		out = append(out, Token(text[i]))
	}
	return out
}

func (v *fakeVocab) Tokenize(text string, capacity int, addSpecial, parseSpecial bool) Tokenized {
	if v.panics {
		panic("tokenizer exploded")
	}
	v.tokenizeCaps = append(v.tokenizeCaps, capacity)
	fn := v.tokenize
	if fn == nil {
		fn = byteTokens
	}
	toks := fn(text)
	if len(toks) > capacity {
		return Tokenized{Need: len(toks)}
	}
	return Tokenized{Tokens: toks}
}

func (v *fakeVocab) Piece(tok Token, capacity int, special bool) Rendered {
	v.pieceCaps = append(v.pieceCaps, capacity)
	text := v.pieces[tok]
	if s, ok := v.specials[tok]; ok {
		text = ""
		if special {
			text = s
		}
	}
	if len(text) > capacity {
		return Rendered{Need: len(text)}
	}
	return Rendered{Text: text}
}

func (v *fakeVocab) EOS() Token { return tokEOS }
func (v *fakeVocab) Size() int  { return vocabSize }

// promptLen is the number of tokens the default tokenizer produces for a
// user prompt after templating with the short system prompt.
func promptLen(user string) int {
	return len(byteTokens(FormatPrompt(ShortSystemPrompt, user)))
}

// prefillChunks is the number of Prefill batches for n tokens at the default width.
func prefillChunks(n int) int {
	w := batchWidth(DefaultBatchSize)
	return (n + w - 1) / w
}

func repeatToken(t Token, n int) []Token {
	out := make([]Token, n)
	for i := range out {
		out[i] = t
	}
	return out
}
