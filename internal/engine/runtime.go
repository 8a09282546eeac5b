package engine

// Token is a vocabulary id.
type Token int32

// ModelParams controls how weights are loaded.
type ModelParams struct {
	UseMmap  bool
	UseMlock bool
	// GPULayers is the number of layers to offload. Negative keeps the
	// runtime's default.
	GPULayers int
}

// ContextParams sizes a decoding context.
type ContextParams struct {
	ContextSize  int
	BatchSize    int
	Threads      int
	ThreadsBatch int
}

// Runtime is the native inference library. BackendInit/BackendFree bracket
// the lifetime of every model loaded through it.
type Runtime interface {
	BackendInit() error
	BackendFree()
	LoadModel(path string, params ModelParams) (Model, error)
}

// Model is a loaded set of weights. Close must be called exactly once.
type Model interface {
	// Vocab returns nil when the model carries no vocabulary.
	Vocab() Vocab
	NewContext(params ContextParams) (Context, error)
	Close() error
}

// Tokenized is the result of one tokenization attempt. Need > 0 means the
// capacity was too small and Need tokens are required; Tokens is then empty.
type Tokenized struct {
	Tokens []Token
	Need   int
}

// Rendered is the result of rendering one token. Need > 0 means the capacity
// was too small and Need bytes are required; Text is then empty.
type Rendered struct {
	Text string
	Need int
}

// Vocab converts between text and tokens.
type Vocab interface {
	Tokenize(text string, capacity int, addSpecial, parseSpecial bool) Tokenized
	Piece(tok Token, capacity int, special bool) Rendered
	EOS() Token
	Size() int
}

// Context holds the attention cache for one model.
type Context interface {
	// Size is the token capacity.
	Size() int
	Decode(b *Batch) error
	// Logits returns the scores of the last token that requested them, or
	// nil. The slice is only valid until the next Decode.
	Logits() []float32
	ClearMemory()
	SetThreads(threads, threadsBatch int)
	Close() error
}
