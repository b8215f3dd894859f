package manager

import (
	"time"

	"tutord/internal/registry"
)

// InstanceState is the lifecycle state of one adapter instance.
type InstanceState string

const (
	StateUnloaded InstanceState = "unloaded"
	StateStarting InstanceState = "starting"
	StateReady    InstanceState = "ready"
	StateFailed   InstanceState = "failed"
	StateStopping InstanceState = "stopping"
)

// Turn is one prior conversation message. The manager treats history as
// opaque context; persistence belongs to the caller.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// GenerationRequest is the canonical per-call value object every
// backend family accepts.
type GenerationRequest struct {
	Message      string
	MaxNewTokens int
	Temperature  float64
	TopP         float64
	// SystemPrompt overrides the family default when non-empty.
	SystemPrompt string
	// History is truncated to the last 3 exchanges before inclusion.
	History []Turn
	// Language hint, informational only at this layer.
	Language string
}

// GeneratedText is the normalized result of one inference call.
type GeneratedText struct {
	Text            string
	TokensGenerated int
	Duration        time.Duration
}

// ReadyInfo reports a successful adapter start.
type ReadyInfo struct {
	Key      string
	Endpoint string // empty for in-process backends
	LoadTime time.Duration
}

// Instance is one running/loaded model. At most one per descriptor key.
// All fields except the adapter call itself are guarded by Manager.mu.
type Instance struct {
	Desc     registry.Descriptor
	State    InstanceState
	Endpoint string
	LoadedAt time.Time
	LastErr  string
	adapter  BackendAdapter
	// inflight counts generate calls currently inside the adapter so an
	// eviction can wait for them to finish.
	inflight int
}
