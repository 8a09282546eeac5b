package engine

// State is the lifecycle state of the Engine.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateGenerating    State = "generating"
	StateReleased      State = "released"
)
