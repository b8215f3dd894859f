package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/registry"
)

// Manager arbitrates which adapters are resident and enforces the
// exclusivity invariant. It is explicitly constructed and handed to the
// HTTP layer; there are no package-level singletons.
type Manager struct {
	cfg ManagerConfig
	reg *registry.Registry
	log zerolog.Logger

	// opMu serializes activate/deactivate/close so residency never
	// mutates concurrently. Generate calls only take mu.
	opMu sync.Mutex
	// mu guards instances, roles, and per-instance state/inflight.
	mu        sync.RWMutex
	instances map[string]*Instance
	roles     map[registry.Role]string

	startTime time.Time
	loads     uint64
	evictions uint64

	// newAdapterFn is swapped in tests to inject fake backends.
	newAdapterFn func(registry.Descriptor, ManagerConfig) BackendAdapter
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:          cfg,
		reg:          cfg.Registry,
		log:          cfg.Logger.With().Str("component", "manager").Logger(),
		instances:    make(map[string]*Instance),
		roles:        make(map[registry.Role]string),
		startTime:    time.Now(),
		newAdapterFn: newAdapter,
	}
}

// Registry exposes the capability table backing this manager.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// Get returns the instance currently bound to role, or nil.
func (m *Manager) Get(role registry.Role) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.roles[role]
	if !ok {
		return nil
	}
	return m.instances[key]
}

// Resident reports whether any instance is currently loaded for key.
func (m *Manager) Resident(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.instances[key]
	return ok
}

// ClearResources forces a memory-reclaim pass on all resident
// in-process adapters. Subprocess adapters free memory only on a full
// stop, so this is a no-op for them.
func (m *Manager) ClearResources() {
	m.mu.RLock()
	adapters := make([]BackendAdapter, 0, len(m.instances))
	for _, inst := range m.instances {
		adapters = append(adapters, inst.adapter)
	}
	m.mu.RUnlock()
	for _, a := range adapters {
		if r, ok := a.(MemoryReclaimer); ok {
			r.Reclaim()
		}
	}
	m.log.Info().Int("instances", len(adapters)).Msg("memory reclaim pass")
}

// Close stops every resident instance. Used at shutdown; stop failures
// are logged by the adapters, never propagated.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	instances := m.instances
	m.instances = make(map[string]*Instance)
	m.roles = make(map[registry.Role]string)
	m.mu.Unlock()
	for key, inst := range instances {
		m.log.Info().Str("model", key).Msg("stopping on shutdown")
		inst.adapter.Stop()
	}
}
