package httpapi

import (
	"net/http"

	"golang.org/x/sync/semaphore"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// queue bounds generation requests admitted at once (running plus waiting
// on the engine). nil admits everything.
var queue *semaphore.Weighted

// SetMaxQueue sets how many /generate and /ui requests may be admitted at
// once. Requests beyond that get 429. n <= 0 removes the bound.
func SetMaxQueue(n int) {
	if n <= 0 {
		queue = nil
		return
	}
	queue = semaphore.NewWeighted(int64(n))
}

// acquireSlot admits a generation request or answers 429. The returned
// func releases the slot.
func acquireSlot(w http.ResponseWriter) (func(), bool) {
	q := queue
	if q == nil {
		return func() {}, true
	}
	if !q.TryAcquire(1) {
		IncrementBackpressure("queue")
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusTooManyRequests, "engine busy, retry later")
		return nil, false
	}
	return func() { q.Release(1) }, true
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
