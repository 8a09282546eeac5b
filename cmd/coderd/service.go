package main

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"coderd/internal/config"
	"coderd/internal/engine"
	"coderd/internal/llamacpp"
	"coderd/internal/registry"
	"coderd/internal/threads"
	"coderd/pkg/types"
)

// recentEvents is how many engine events GET /events keeps.
const recentEvents = 100

// newRuntime is swapped in tests.
var newRuntime = func() engine.Runtime { return llamacpp.New() }

// backend serves the HTTP API from one engine and the models directory.
type backend struct {
	*engine.Engine
	log    zerolog.Logger
	events *engine.MemoryPublisher

	mu        sync.RWMutex
	modelsDir string
}

func newBackend(cfg config.Config, log zerolog.Logger) *backend {
	b := &backend{
		Engine:    engine.New(newRuntime(), cfg.EngineConfig()),
		log:       log,
		events:    engine.NewMemoryPublisher(recentEvents),
		modelsDir: cfg.ModelsDir,
	}
	b.SetLogger(log.With().Str("component", "engine").Logger())
	b.SetEventPublisher(engine.MultiPublisher{b.events, engine.NewLogPublisher(log)})
	if !llamacpp.Available() {
		log.Warn().Msg("built without llama support; init will fail (rebuild with -tags llama)")
	}
	return b
}

func (b *backend) dir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modelsDir
}

func (b *backend) setModelsDir(dir string) {
	b.mu.Lock()
	b.modelsDir = dir
	b.mu.Unlock()
}

func (b *backend) ListModels() []types.Model {
	models, err := registry.LoadDir(b.dir())
	if err != nil {
		b.log.Warn().Err(err).Str("dir", b.dir()).Msg("scan models")
		return nil
	}
	return models
}

func (b *backend) ResolveModel(ref string) (string, error) {
	// A missing models dir still allows plain paths.
	models, _ := registry.LoadDir(b.dir())
	return registry.Resolve(models, ref)
}

func (b *backend) RecentEvents() []types.Event {
	evs := b.events.Events()
	out := make([]types.Event, len(evs))
	for i, e := range evs {
		out[i] = types.Event{Name: e.Name, Model: e.Model, TimeUnixMs: e.Time.UnixMilli(), Fields: e.Fields}
	}
	return out
}

// initModel resolves ref and loads it. threads 0 uses the CPU heuristic.
func (b *backend) initModel(ref string, n int) error {
	path, err := b.ResolveModel(ref)
	if err != nil {
		return err
	}
	if !b.Init(path, threads.Resolve(n)) {
		if msg := b.Status().LastError; msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("failed to load model at %s", path)
	}
	return nil
}

// applyConfig moves a running server from old to next. Listen address,
// HTTP limits and logging need a restart.
func (b *backend) applyConfig(old, next config.Config) {
	old, next = old.WithDefaults(), next.WithDefaults()
	b.setModelsDir(next.ModelsDir)
	b.Reconfigure(next.EngineConfig())
	if old.Addr != next.Addr || old.Log != next.Log || !httpEqual(old.HTTP, next.HTTP) {
		b.log.Warn().Msg("addr, log and http settings apply after restart")
	}
	if !next.NeedsReload(old) {
		return
	}
	if next.Model.Path == "" {
		b.Release()
		return
	}
	if err := b.initModel(next.Model.Path, next.Model.Threads); err != nil {
		b.log.Error().Err(err).Str("model", next.Model.Path).Msg("reload failed; no model loaded")
	}
}

func httpEqual(a, b config.HTTPConfig) bool {
	if a.MaxBodyBytes != b.MaxBodyBytes || a.MaxQueue != b.MaxQueue || a.CORS.Enabled != b.CORS.Enabled {
		return false
	}
	return slices.Equal(a.CORS.Origins, b.CORS.Origins) &&
		slices.Equal(a.CORS.Methods, b.CORS.Methods) &&
		slices.Equal(a.CORS.Headers, b.CORS.Headers)
}
