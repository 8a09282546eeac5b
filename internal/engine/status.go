package engine

import (
	"time"

	"coderd/pkg/types"
)

// Status builds a status report for /status. It waits for any running
// generation to finish.
func (e *Engine) Status() types.StatusResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	ctxSize, width := e.cfg.ContextSize, batchWidth(e.cfg.BatchSize)
	if e.ctx != nil {
		ctxSize, width = e.ctx.Size(), e.width
	}
	now := time.Now()
	return types.StatusResponse{
		State:            string(e.state),
		ModelPath:        e.modelPath,
		Threads:          e.threads,
		ContextSize:      ctxSize,
		BatchSize:        width,
		InitsTotal:       e.inits,
		GenerationsTotal: e.generations,
		FailuresTotal:    e.failures,
		LastError:        e.lastErr,
		UptimeSeconds:    int64(now.Sub(e.startTime).Seconds()),
		ServerTimeUnix:   now.Unix(),
	}
}

// Ready reports whether a model is loaded and Generate can run.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateReady && e.model != nil && e.ctx != nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
