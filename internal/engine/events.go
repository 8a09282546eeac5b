package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// Event names published by the Engine.
const (
	EventInitStart     = "init_start"
	EventInitReady     = "init_ready"
	EventInitFailed    = "init_failed"
	EventGenerateStart = "generate_start"
	EventGenerateDone  = "generate_done"
	EventRelease       = "release"
)

// Event represents an engine lifecycle event: a name, the model path it
// concerns and optional key/values.
type Event struct {
	Name   string
	Model  string
	Time   time.Time
	Fields map[string]any
}

// EventPublisher receives events from the engine. Publish runs while the
// engine lock is held, so implementations must not call back into the Engine
// and must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events to a logger at debug level.
type LogPublisher struct{ log zerolog.Logger }

func NewLogPublisher(l zerolog.Logger) LogPublisher { return LogPublisher{log: l} }

func (p LogPublisher) Publish(e Event) {
	p.log.Debug().Str("event", e.Name).Str("model", e.Model).Fields(e.Fields).Msg("engine event")
}

// MultiPublisher fans each event out to every publisher in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
