package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coderd/internal/engine"
	"coderd/internal/threads"
	"coderd/internal/uiprompt"
	"coderd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Init(modelPath string, threads int) bool
	Generate(prompt string, maxTokens int) string
	Release()
	Status() types.StatusResponse
	Ready() bool
	ListModels() []types.Model
	// RecentEvents returns the latest engine events, oldest first.
	RecentEvents() []types.Event
	// ResolveModel maps a model id, name or path to a file path.
	ResolveModel(ref string) (string, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		models := svc.ListModels()
		if models == nil {
			models = []types.Model{}
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		events := svc.RecentEvents()
		if events == nil {
			events = []types.Event{}
		}
		writeJSON(w, http.StatusOK, types.EventsResponse{Events: events})
	})

	r.Post("/init", func(w http.ResponseWriter, r *http.Request) {
		var req types.InitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		rl := newReqLog(r, "init")
		path := strings.TrimSpace(req.ModelPath)
		if path == "" {
			if strings.TrimSpace(req.Model) == "" {
				writeJSONError(w, http.StatusBadRequest, "model_path or model is required")
				return
			}
			p, err := svc.ResolveModel(req.Model)
			if err != nil {
				status := statusFor(err)
				rl.at(LevelError).Int("status", status).Err(err).Msg("init end")
				writeJSONError(w, status, err.Error())
				return
			}
			path = p
		}
		n := threads.Resolve(req.Threads)
		rl.at(LevelInfo).Str("model", path).Int("threads", n).Msg("init start")
		ok := svc.Init(path, n)
		rl.at(LevelInfo).Bool("ok", ok).Dur("dur", time.Since(rl.start)).Msg("init end")
		writeJSON(w, http.StatusOK, types.InitResponse{OK: ok})
	})

	r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		release, ok := acquireSlot(w)
		if !ok {
			return
		}
		defer release()

		rl := newReqLog(r, "generate")
		var text string
		if req.Prompt == nil {
			text = engine.Result(engine.ErrPromptNull)
		} else {
			rl.at(LevelInfo).Int("max_tokens", req.MaxTokens).Msg("generate start")
			rl.at(LevelDebug).Str("prompt", clip(*req.Prompt)).Msg("generate prompt")
			text = svc.Generate(*req.Prompt, req.MaxTokens)
		}
		isErr := engine.IsError(text)
		rl.at(LevelInfo).Bool("is_error", isErr).Int("chars", len(text)).Dur("dur", time.Since(rl.start)).Msg("generate end")
		rl.at(LevelDebug).Str("text", clip(text)).Msg("generate output")
		writeJSON(w, http.StatusOK, types.GenerateResponse{Text: text, IsError: isErr})
	})

	r.Post("/ui", func(w http.ResponseWriter, r *http.Request) {
		var req types.UIRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		release, ok := acquireSlot(w)
		if !ok {
			return
		}
		defer release()

		rl := newReqLog(r, "ui")
		maxTokens := req.MaxTokens
		if maxTokens <= 0 {
			maxTokens = uiprompt.MaxTokens
		}
		rl.at(LevelInfo).Bool("minimal", req.Minimal).Int("max_tokens", maxTokens).Msg("ui start")
		raw := svc.Generate(uiprompt.BuildPrompt(req.AgentText, req.Minimal), maxTokens)
		isErr := uiprompt.IsErrorOutput(raw)
		rl.at(LevelInfo).Bool("is_error", isErr).Dur("dur", time.Since(rl.start)).Msg("ui end")
		rl.at(LevelDebug).Str("raw", clip(raw)).Msg("ui output")
		writeJSON(w, http.StatusOK, types.UIResponse{HTML: uiprompt.SanitizeHTML(raw), Raw: raw, IsError: isErr})
	})

	r.Post("/release", func(w http.ResponseWriter, r *http.Request) {
		svc.Release()
		newReqLog(r, "release").at(LevelInfo).Msg("released")
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model loaded"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// decodeJSON enforces the JSON content type and body limit, then decodes
// into v. It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger().Error().Err(err).Msg("encode response")
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case isNotFound(err):
		return http.StatusNotFound
	case engine.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
