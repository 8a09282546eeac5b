// Package engine owns the single loaded model and runs greedy text generation
// against it. It is structured into small files by concern:
//
//   - engine.go: Engine type, Init/Generate/Release, all serialized by one mutex.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: lifecycle State.
//   - runtime.go: Runtime/Model/Vocab/Context interfaces implemented by a
//     native binding (see internal/llamacpp) or by test fakes.
//   - errors.go: failure kinds, the "[error] " result prefix and IsX helpers.
//   - prompt.go: chat template formatting and system prompt presets.
//   - tokenize.go: prompt tokenization and control-aware detokenization.
//   - batch.go: the decode batch builder.
//   - prefill.go: chunked prompt evaluation.
//   - decode.go: greedy argmax and the autoregressive loop.
//   - status.go: Status/Ready reporting.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// Generate never returns a Go error. Failures come back as strings starting
// with ErrorPrefix so hosts that only pass strings around can still tell them
// apart (see IsError).
package engine
