package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coderd/internal/engine"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "model:\n  path: x\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "model": { "path": } }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "[model]\npath\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	ec := Config{}.EngineConfig()
	want := engine.DefaultConfig()
	if ec != want {
		t.Fatalf("engine cfg = %+v, want %+v", ec, want)
	}
}

func TestEngineConfigOverrides(t *testing.T) {
	zero := 0
	cfg := Config{
		Model:  ModelConfig{GPULayers: &zero},
		Engine: EngineConfig{ContextSize: 8192, BatchSize: 128, DefaultMaxTokens: 64, SystemPreset: "long"},
	}
	ec := cfg.EngineConfig()
	if ec.ContextSize != 8192 || ec.BatchSize != 128 || ec.DefaultMaxTokens != 64 || ec.GPULayers != 0 {
		t.Fatalf("unexpected engine cfg: %+v", ec)
	}
	if ec.SystemPrompt != engine.LongSystemPrompt {
		t.Fatalf("preset not applied")
	}
	cfg.Engine.SystemPrompt = "custom"
	if got := cfg.EngineConfig().SystemPrompt; got != "custom" {
		t.Fatalf("explicit system prompt ignored: %q", got)
	}
}

func TestNeedsReload(t *testing.T) {
	base := Config{Model: ModelConfig{Path: "a.gguf", Threads: 4}}
	if base.NeedsReload(base) {
		t.Fatalf("identical configs must not reload")
	}
	same := base
	same.Log.Level = "debug"
	same.Addr = ":9000"
	if same.NeedsReload(base) {
		t.Fatalf("log/addr changes must not reload")
	}
	moved := base
	moved.Model.Path = "b.gguf"
	if !moved.NeedsReload(base) {
		t.Fatalf("model path change must reload")
	}
	resized := base
	resized.Engine.ContextSize = 8192
	if !resized.NeedsReload(base) {
		t.Fatalf("context size change must reload")
	}
	policy := base
	policy.Engine.DefaultMaxTokens = 64
	policy.Engine.SystemPreset = "long"
	if policy.NeedsReload(base) {
		t.Fatalf("policy changes must not reload")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	old := watchDebounce
	watchDebounce = 20 * time.Millisecond
	defer func() { watchDebounce = old }()

	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "model:\n  path: a.gguf\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Config, 4)
	done := make(chan error, 1)
	onChange := func(c Config) {
		select {
		case got <- c:
		default:
		}
	}
	go func() { done <- Watch(ctx, p, zerolog.Nop(), onChange) }()

	// Keep rewriting until the watcher has registered and reports a reload.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-got:
			if c.Model.Path == "" {
				continue // caught the file mid-write
			}
			if c.Model.Path != "b.gguf" {
				t.Fatalf("unexpected reload: %+v", c.Model)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watch: %v", err)
			}
			return
		case <-tick.C:
			writeTempFile(t, d, "cfg.yaml", "model:\n  path: b.gguf\n")
		case <-deadline:
			t.Fatalf("no reload observed")
		}
	}
}

func TestWatchSkipsInvalidFile(t *testing.T) {
	old := watchDebounce
	watchDebounce = 20 * time.Millisecond
	defer func() { watchDebounce = old }()

	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "model:\n  path: a.gguf\n")
	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	calls := 0
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(p, []byte("model:\n  threads: -7\n"), 0o644)
	}()
	if err := Watch(ctx, p, zerolog.Nop(), func(Config) { calls++ }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if calls != 0 {
		t.Fatalf("invalid config must not be delivered, got %d calls", calls)
	}
}
