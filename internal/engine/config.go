package engine

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultContextSize = 4096
	DefaultBatchSize   = 64
	DefaultMaxTokens   = 512

	// minBudget is the floor for the per-request token budget.
	minBudget = 16
)

// Config holds the fixed generation policy. Zero values select the defaults
// above, and an empty SystemPrompt selects ShortSystemPrompt.
type Config struct {
	ContextSize      int
	BatchSize        int
	DefaultMaxTokens int
	SystemPrompt     string
	// GPULayers is passed to the runtime as-is: negative keeps the runtime
	// default, 0 keeps every layer on the CPU.
	GPULayers int
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ContextSize:      DefaultContextSize,
		BatchSize:        DefaultBatchSize,
		DefaultMaxTokens: DefaultMaxTokens,
		SystemPrompt:     ShortSystemPrompt,
		GPULayers:        -1,
	}
}

func (c Config) withDefaults() Config {
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.DefaultMaxTokens <= 0 {
		c.DefaultMaxTokens = DefaultMaxTokens
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = ShortSystemPrompt
	}
	return c
}
