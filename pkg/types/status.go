package types

// ModelSummary is the registry view of one model exposed over the API.
type ModelSummary struct {
	// Registry key.
	// example: gpt-oss-20b
	Key string `json:"key" example:"gpt-oss-20b"`
	// Human-friendly name.
	// example: GPT-OSS 20B (GGUF)
	DisplayName string `json:"display_name" example:"GPT-OSS 20B (GGUF)"`
	// Estimated VRAM footprint in MB.
	// example: 14200
	VRAMEstimateMB int `json:"vram_estimate_mb" example:"14200"`
	// Backend kind: subprocess-server or in-process.
	// example: subprocess-server
	Backend string `json:"backend" example:"subprocess-server"`
	// If true, no other model may be resident alongside this one.
	Exclusive bool `json:"exclusive"`
	// Roles this model can serve.
	// example: ["chat","evaluation"]
	Roles []string `json:"roles"`
	// True when the model interleaves a deliberation trace with its
	// answer and needs final-answer extraction.
	ReasoningCapable bool `json:"reasoning_capable"`
	// False when the runtime on this host cannot load the model.
	Compatible bool `json:"compatible"`
}

// InstanceStatus summarizes one resident adapter instance for /api/status.
type InstanceStatus struct {
	// Registry key of the model this instance serves.
	// example: gpt-oss-20b
	Model string `json:"model" example:"gpt-oss-20b"`
	// Lifecycle state: unloaded, starting, ready, failed, stopping.
	// example: ready
	State string `json:"state" example:"ready"`
	// Backend endpoint for subprocess-server instances.
	// example: http://127.0.0.1:8081
	Endpoint string `json:"endpoint,omitempty" example:"http://127.0.0.1:8081"`
	// Unix time the instance became ready.
	// example: 1700000000
	LoadedAt int64 `json:"loaded_at_unix,omitempty" example:"1700000000"`
	// Last error observed on this instance, if any.
	LastError string `json:"last_error,omitempty"`
	// Number of in-flight generate calls.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Estimated VRAM usage in MB.
	// example: 14200
	EstVRAMMB int `json:"est_vram_mb" example:"14200"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Role name -> registry key of the bound model.
	Roles map[string]string `json:"roles"`
	// Currently resident instances.
	Instances []InstanceStatus `json:"instances"`
	// Registry snapshot (all known models, compatible or not).
	Registry []ModelSummary `json:"registry"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
	// Total model loads since start.
	LoadsTotal uint64 `json:"loads_total"`
	// Total exclusivity evictions since start.
	EvictionsTotal uint64 `json:"evictions_total"`
}

// ModelsResponse wraps the list returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelSummary `json:"models"`
}
