package manager

import (
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultHealthPollInterval = 1 * time.Second
	defaultStartTimeout       = 120 * time.Second
	defaultGenerateTimeout    = 120 * time.Second
	defaultStopGrace          = 5 * time.Second
	defaultDrainTimeout       = 10 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
// No environment variables are read here; callers supply everything.
type ManagerConfig struct {
	Registry *registry.Registry
	// ServerBin is the llama-server binary for subprocess backends.
	ServerBin string
	// ModelsDir holds the GGUF files named by the descriptors.
	ModelsDir string
	// Host subprocess servers bind to (default 127.0.0.1).
	Host string

	HealthPollInterval time.Duration
	StartTimeout       time.Duration
	GenerateTimeout    time.Duration
	StopGrace          time.Duration
	// DrainTimeout bounds how long an eviction waits for in-flight
	// generate calls before proceeding anyway.
	DrainTimeout time.Duration

	// Threads for in-process inference.
	Threads int

	Logger    zerolog.Logger
	Publisher EventPublisher
}

func (c *ManagerConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.HealthPollInterval <= 0 {
		c.HealthPollInterval = defaultHealthPollInterval
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = defaultStartTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = defaultGenerateTimeout
	}
	if c.StopGrace <= 0 {
		c.StopGrace = defaultStopGrace
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Threads <= 0 {
		c.Threads = 4
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
}
