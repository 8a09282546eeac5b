package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr      string       `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string       `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	Model     ModelConfig  `json:"model" yaml:"model" toml:"model"`
	Engine    EngineConfig `json:"engine" yaml:"engine" toml:"engine"`
	Log       LogConfig    `json:"log" yaml:"log" toml:"log"`
	HTTP      HTTPConfig   `json:"http" yaml:"http" toml:"http"`
}

// ModelConfig selects the model loaded at startup.
type ModelConfig struct {
	// Path or id (file name under models_dir). Empty starts without a model.
	Path string `json:"path" yaml:"path" toml:"path"`
	// Threads 0 uses the CPU heuristic.
	Threads int `json:"threads" yaml:"threads" toml:"threads"`
	// GPULayers nil keeps the runtime default.
	GPULayers *int `json:"gpu_layers,omitempty" yaml:"gpu_layers,omitempty" toml:"gpu_layers,omitempty"`
}

// EngineConfig is the generation policy.
type EngineConfig struct {
	ContextSize      int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	BatchSize        int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	DefaultMaxTokens int    `json:"default_max_tokens" yaml:"default_max_tokens" toml:"default_max_tokens"`
	SystemPrompt     string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	// SystemPreset is "short" or "long"; ignored when SystemPrompt is set.
	SystemPreset string `json:"system_preset" yaml:"system_preset" toml:"system_preset"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" toml:"level"`
	Format     string `json:"format" yaml:"format" toml:"format"`
	File       string `json:"file" yaml:"file" toml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" toml:"max_age_days"`
}

// HTTPConfig tunes the HTTP layer.
type HTTPConfig struct {
	MaxBodyBytes int64      `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxQueue     int        `json:"max_queue" yaml:"max_queue" toml:"max_queue"` // 0 is unbounded
	CORS         CORSConfig `json:"cors" yaml:"cors" toml:"cors"`
}

// CORSConfig is opt-in cross-origin access.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension and validates it
// against the embedded schema.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &raw); err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := validate(raw); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// normalize re-encodes a decoded document as JSON so YAML and TOML values
// reach the validator with JSON types.
func normalize(raw any) (any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	return out, nil
}
