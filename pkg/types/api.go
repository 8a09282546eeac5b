package types

// InitRequest loads (or reloads) the model.
type InitRequest struct {
	// Path to a GGUF model file. Either ModelPath or Model is required.
	// example: /home/user/models/qwen2.5-coder-1.5b-instruct-q4_k_m.gguf
	ModelPath string `json:"model_path,omitempty" example:"/home/user/models/qwen2.5-coder-1.5b-instruct-q4_k_m.gguf"`
	// Model id from GET /models, resolved against the models directory.
	// example: qwen2.5-coder-1.5b-instruct-q4_k_m.gguf
	Model string `json:"model,omitempty" example:"qwen2.5-coder-1.5b-instruct-q4_k_m.gguf"`
	// CPU threads for evaluation. 0 uses the server's recommendation.
	// example: 4
	Threads int `json:"threads,omitempty" example:"4"`
}

// InitResponse reports whether the model is loaded.
type InitResponse struct {
	// example: true
	OK bool `json:"ok" example:"true"`
}

// GenerateRequest asks for one completion.
type GenerateRequest struct {
	// Prompt text. A missing prompt yields the "Prompt is null." failure text.
	// example: Build a login form with email and password.
	Prompt *string `json:"prompt" example:"Build a login form with email and password."`
	// Maximum number of new tokens. 0 uses the server default.
	// example: 512
	MaxTokens int `json:"max_tokens,omitempty" example:"512"`
}

// GenerateResponse carries the generated text or a failure text.
type GenerateResponse struct {
	// Generated text, or a string starting with "[error] ".
	Text string `json:"text"`
	// True when Text is a failure text.
	// example: false
	IsError bool `json:"is_error" example:"false"`
}

// UIRequest turns agent output into an HTML page.
type UIRequest struct {
	// Text produced by an upstream agent.
	// example: Your electricity bill of ₹1,240 is due on 5 Nov.
	AgentText string `json:"agent_text" example:"Your electricity bill of ₹1,240 is due on 5 Nov."`
	// Use the short prompt template.
	// example: false
	Minimal bool `json:"minimal,omitempty" example:"false"`
	// Maximum number of new tokens. 0 uses the UI default.
	// example: 1024
	MaxTokens int `json:"max_tokens,omitempty" example:"1024"`
}

// UIResponse is the renderable page plus the raw model output.
type UIResponse struct {
	HTML    string `json:"html"`
	Raw     string `json:"raw"`
	IsError bool   `json:"is_error"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine lifecycle state: uninitialized, ready, released.
	// example: ready
	State string `json:"state" example:"ready"`
	// Path of the loaded model, if any.
	ModelPath string `json:"model_path,omitempty"`
	// example: 4
	Threads int `json:"threads" example:"4"`
	// example: 4096
	ContextSize int `json:"context_size" example:"4096"`
	// example: 64
	BatchSize int `json:"batch_size" example:"64"`
	// Number of successful Init calls.
	// example: 1
	InitsTotal uint64 `json:"inits_total" example:"1"`
	// Number of Generate calls.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Number of Generate calls that returned a failure text.
	// example: 0
	FailuresTotal uint64 `json:"failures_total" example:"0"`
	// Last failure observed by the engine (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the engine in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// Event is one engine lifecycle event.
type Event struct {
	// example: generate_done
	Name string `json:"name" example:"generate_done"`
	// Model path the event concerns, if any.
	Model string `json:"model,omitempty"`
	// Unix time in milliseconds.
	// example: 1700000000000
	TimeUnixMs int64          `json:"time_unix_ms" example:"1700000000000"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// EventsResponse is returned by GET /events, oldest first.
type EventsResponse struct {
	Events []Event `json:"events"`
}
