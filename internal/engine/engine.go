package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Engine owns at most one model and one decoding context. Init, Generate,
// Release, Status and Ready are serialized by a single mutex; a call made
// while another is running blocks until it finishes.
type Engine struct {
	mu        sync.Mutex
	rt        Runtime
	cfg       Config
	log       zerolog.Logger
	publisher EventPublisher

	state     State
	backendUp bool
	model     Model
	ctx       Context
	modelPath string
	threads   int
	// width is the prefill chunk size the live context was built with.
	width int

	startTime   time.Time
	inits       uint64
	generations uint64
	failures    uint64
	lastErr     string
}

// New returns an uninitialized Engine using rt for all native calls.
func New(rt Runtime, cfg Config) *Engine {
	return &Engine{
		rt:        rt,
		cfg:       cfg.withDefaults(),
		log:       zerolog.Nop(),
		publisher: noopPublisher{},
		state:     StateUninitialized,
		startTime: time.Now(),
	}
}

// SetLogger installs a structured logger.
func (e *Engine) SetLogger(l zerolog.Logger) {
	e.mu.Lock()
	e.log = l
	e.mu.Unlock()
}

// SetEventPublisher installs an event publisher. nil restores the default.
func (e *Engine) SetEventPublisher(p EventPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == nil {
		e.publisher = noopPublisher{}
		return
	}
	e.publisher = p
}

// Config returns the effective generation policy.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure replaces the generation policy. Sizing changes apply to the
// next Init; the system prompt and default budget apply to the next Generate.
func (e *Engine) Reconfigure(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg.withDefaults()
}

// Init loads the model at modelPath and builds a context evaluated with
// threads CPU threads (at least 1). Anything already loaded is torn down
// first, backend included. On failure nothing stays allocated.
func (e *Engine) Init(modelPath string, threads int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	threads = max(1, threads)
	if strings.TrimSpace(modelPath) == "" {
		e.log.Error().Msg("init: empty model path")
		initsTotal.WithLabelValues("failed").Inc()
		return false
	}

	start := time.Now()
	e.publish(Event{Name: EventInitStart, Model: modelPath, Fields: map[string]any{"threads": threads}})
	if err := e.initLocked(modelPath, threads); err != nil {
		e.state = StateUninitialized
		e.lastErr = err.Error()
		initsTotal.WithLabelValues("failed").Inc()
		e.log.Error().Err(err).Str("model", modelPath).Int("threads", threads).Msg("init failed")
		e.publish(Event{Name: EventInitFailed, Model: modelPath, Fields: map[string]any{"error": err.Error()}})
		return false
	}

	e.state = StateReady
	e.modelPath = modelPath
	e.threads = threads
	e.inits++
	initsTotal.WithLabelValues("ok").Inc()
	modelLoaded.Set(1)
	e.log.Info().
		Str("model", modelPath).
		Int("threads", threads).
		Int("context_size", e.ctx.Size()).
		Int("batch_size", e.width).
		Dur("dur", time.Since(start)).
		Msg("model loaded")
	e.publish(Event{Name: EventInitReady, Model: modelPath, Fields: map[string]any{"threads": threads}})
	return true
}

func (e *Engine) initLocked(modelPath string, threads int) error {
	if !e.backendUp {
		if err := e.rt.BackendInit(); err != nil {
			return fmt.Errorf("backend init: %w", err)
		}
		e.backendUp = true
	}
	if e.model != nil || e.ctx != nil {
		if err := e.releaseLocked(); err != nil {
			e.log.Warn().Err(err).Msg("teardown before reload")
		}
		if err := e.rt.BackendInit(); err != nil {
			return fmt.Errorf("backend init: %w", err)
		}
		e.backendUp = true
	}

	m, err := e.rt.LoadModel(modelPath, ModelParams{UseMmap: true, UseMlock: false, GPULayers: e.cfg.GPULayers})
	if err != nil {
		e.discardLocked()
		return fmt.Errorf("failed to load model at %s: %w", modelPath, err)
	}
	e.model = m

	width := batchWidth(e.cfg.BatchSize)
	c, err := m.NewContext(ContextParams{
		ContextSize:  e.cfg.ContextSize,
		BatchSize:    width,
		Threads:      threads,
		ThreadsBatch: threads,
	})
	if err != nil {
		e.discardLocked()
		return fmt.Errorf("failed to create context for %s: %w", modelPath, err)
	}
	e.ctx = c
	e.width = width
	c.SetThreads(threads, threads)
	return nil
}

// discardLocked releases partial resources after a failed Init.
func (e *Engine) discardLocked() {
	if err := e.releaseLocked(); err != nil {
		e.log.Warn().Err(err).Msg("teardown after failed init")
	}
}

// releaseLocked frees the context, the model and the backend, in that order.
func (e *Engine) releaseLocked() error {
	var err error
	if e.ctx != nil {
		err = multierr.Append(err, e.ctx.Close())
		e.ctx = nil
	}
	if e.model != nil {
		err = multierr.Append(err, e.model.Close())
		e.model = nil
	}
	if e.backendUp {
		e.rt.BackendFree()
		e.backendUp = false
	}
	e.modelPath = ""
	e.threads = 0
	e.width = 0
	modelLoaded.Set(0)
	return err
}

func (e *Engine) publish(ev Event) {
	ev.Time = time.Now()
	e.publisher.Publish(ev)
}

// Release tears everything down. Calling it again is a no-op.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	held := e.model != nil || e.ctx != nil || e.backendUp
	if !held {
		return
	}
	path := e.modelPath
	if err := e.releaseLocked(); err != nil {
		for _, cause := range multierr.Errors(err) {
			e.log.Warn().Err(cause).Str("model", path).Msg("release")
		}
	}
	e.state = StateReleased
	e.log.Info().Str("model", path).Msg("model released")
	e.publish(Event{Name: EventRelease, Model: path})
}

// generation is the outcome of one pipeline run.
type generation struct {
	text         string
	promptTokens int
	budget       int
	tokens       int
	err          error
}

// Generate produces a completion for prompt using at most maxTokens new
// tokens (<= 0 selects the configured default). Failures are returned as
// text starting with ErrorPrefix; see IsError.
func (e *Engine) Generate(prompt string, maxTokens int) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	start := time.Now()
	e.generations++
	e.publish(Event{Name: EventGenerateStart, Model: e.modelPath, Fields: map[string]any{"id": id, "max_tokens": maxTokens}})

	g := e.generateLocked(prompt, maxTokens)
	dur := time.Since(start)
	generateDuration.Observe(dur.Seconds())

	result := resultOK
	text := g.text
	switch {
	case g.err != nil:
		result = resultError
		text = Result(g.err)
	case text == "":
		result = resultEmpty
		text = EmptyResponse
	}
	generationsTotal.WithLabelValues(result).Inc()
	tokensGeneratedTotal.Add(float64(g.tokens))
	if result != resultOK {
		e.failures++
		e.lastErr = text
	}

	ev := e.log.Info()
	if g.err != nil {
		ev = e.log.Warn().Err(g.err)
		var ie internalError
		if errors.As(g.err, &ie) {
			ev = e.log.Error().Interface("panic", ie.value)
		}
	}
	ev.Str("id", id).
		Int("prompt_tokens", g.promptTokens).
		Int("budget", g.budget).
		Int("tokens", g.tokens).
		Str("result", result).
		Dur("dur", dur).
		Msg("generate")
	e.publish(Event{Name: EventGenerateDone, Model: e.modelPath, Fields: map[string]any{
		"id":     id,
		"result": result,
		"tokens": g.tokens,
	}})
	return text
}

func (e *Engine) generateLocked(prompt string, maxTokens int) (g generation) {
	defer func() {
		if r := recover(); r != nil {
			g = generation{promptTokens: g.promptTokens, budget: g.budget, err: internalError{value: r}}
		}
	}()

	if !utf8.ValidString(prompt) {
		return generation{err: ErrPromptUnreadable}
	}
	if e.state != StateReady || e.model == nil || e.ctx == nil {
		return generation{err: ErrNotInitialized}
	}
	e.state = StateGenerating
	defer func() { e.state = StateReady }()

	vocab := e.model.Vocab()
	if vocab == nil {
		return generation{err: ErrVocabMissing}
	}

	tokens := Tokenize(vocab, FormatPrompt(e.cfg.SystemPrompt, prompt))
	if len(tokens) == 0 {
		return generation{err: ErrTokenize}
	}
	g.promptTokens = len(tokens)
	promptTokens.Observe(float64(len(tokens)))

	ctxSize := e.ctx.Size()
	if len(tokens) >= ctxSize {
		return generation{promptTokens: len(tokens), err: ErrPromptTooLong}
	}
	g.budget = Budget(maxTokens, e.cfg.DefaultMaxTokens, ctxSize, len(tokens))

	e.ctx.ClearMemory()
	cursor := 0
	if err := Prefill(e.ctx, tokens, e.width, &cursor); err != nil {
		g.err = errPrefill(err)
		return g
	}

	text, n, err := Decode(e.ctx, vocab, g.budget, &cursor)
	g.tokens = n
	if err != nil {
		g.err = err
		return g
	}
	g.text = text
	return g
}
