package types

// Model represents a loadable model file on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: qwen2.5-coder-1.5b-instruct-q4_k_m.gguf
	ID string `json:"id" example:"qwen2.5-coder-1.5b-instruct-q4_k_m.gguf"`
	// Human-friendly name.
	// example: qwen2.5-coder-1.5b-instruct
	Name string `json:"name" example:"qwen2.5-coder-1.5b-instruct"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/qwen2.5-coder-1.5b-instruct-q4_k_m.gguf
	Path string `json:"path" example:"/home/user/models/qwen2.5-coder-1.5b-instruct-q4_k_m.gguf"`
	// Quantization level parsed from the file name, if recognizable.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
	// Size of the file in bytes.
	// example: 1117320192
	SizeBytes int64 `json:"size_bytes" example:"1117320192"`
}
