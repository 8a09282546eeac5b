package config

import (
	"coderd/internal/engine"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr      = ":8080"
	DefaultModelsDir = "~/models/llm"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.Engine.ContextSize <= 0 {
		c.Engine.ContextSize = engine.DefaultContextSize
	}
	if c.Engine.BatchSize <= 0 {
		c.Engine.BatchSize = engine.DefaultBatchSize
	}
	if c.Engine.DefaultMaxTokens <= 0 {
		c.Engine.DefaultMaxTokens = engine.DefaultMaxTokens
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	return c
}

// EngineConfig maps the file settings onto the engine policy.
func (c Config) EngineConfig() engine.Config {
	c = c.WithDefaults()
	ec := engine.Config{
		ContextSize:      c.Engine.ContextSize,
		BatchSize:        c.Engine.BatchSize,
		DefaultMaxTokens: c.Engine.DefaultMaxTokens,
		SystemPrompt:     c.Engine.SystemPrompt,
		GPULayers:        -1,
	}
	if ec.SystemPrompt == "" {
		ec.SystemPrompt = engine.SystemPromptForPreset(c.Engine.SystemPreset)
	}
	if c.Model.GPULayers != nil {
		ec.GPULayers = *c.Model.GPULayers
	}
	return ec
}

// NeedsReload reports whether moving from old to c requires re-initializing
// the engine: a different model, thread count or context sizing. Prompt and
// budget changes apply through Engine.Reconfigure instead.
func (c Config) NeedsReload(old Config) bool {
	a, b := old.WithDefaults(), c.WithDefaults()
	if a.Model.Path != b.Model.Path || a.Model.Threads != b.Model.Threads {
		return true
	}
	ea, eb := a.EngineConfig(), b.EngineConfig()
	return ea.ContextSize != eb.ContextSize || ea.BatchSize != eb.BatchSize || ea.GPULayers != eb.GPULayers
}
