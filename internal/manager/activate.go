package manager

import (
	"context"
	"time"

	"tutord/internal/registry"
)

// Activate ensures the model behind key is resident and bound to role.
// Activation of an already-Ready model is idempotent: the existing
// instance is rebound without restarting anything. Start failures are
// propagated without mutating residency.
func (m *Manager) Activate(ctx context.Context, key string, role registry.Role) (ReadyInfo, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	desc, ok := m.reg.Describe(key)
	if !ok {
		return ReadyInfo{}, ErrUnknownModel(key)
	}
	if !m.reg.Compatible(key) {
		return ReadyInfo{}, ErrIncompatibleModel(key, "runtime does not satisfy model requirements")
	}
	if !desc.SupportsRole(role) {
		return ReadyInfo{}, ErrIncompatibleModel(key, "model does not support role "+string(role))
	}

	if desc.Exclusive {
		// Eviction runs fully before the new model starts so GPU
		// memory is freed first. Best effort: a stubborn old model
		// must not block the new one.
		m.evictOthers(key)
	} else if holder := m.residentExclusive(); holder != "" && holder != key {
		return ReadyInfo{}, ErrIncompatibleModel(key,
			"exclusive model "+holder+" is resident; deactivate it first")
	}

	m.mu.Lock()
	if inst := m.instances[key]; inst != nil {
		if inst.State == StateReady {
			m.roles[role] = key
			endpoint := inst.Endpoint
			m.mu.Unlock()
			m.log.Info().Str("model", key).Str("role", string(role)).Msg("reusing ready instance")
			return ReadyInfo{Key: key, Endpoint: endpoint}, nil
		}
		// Stale failed/stopping instance: replace it with a fresh one.
		stale := inst.adapter
		delete(m.instances, key)
		m.clearRolePointersLocked(key)
		m.mu.Unlock()
		stale.Stop()
	} else {
		m.mu.Unlock()
	}

	adapter := m.newAdapterFn(desc, m.cfg)
	m.log.Info().Str("model", key).Str("role", string(role)).Msg("starting model")
	m.cfg.Publisher.Publish(Event{Name: "activate_start", Model: key, Fields: map[string]any{"role": string(role)}})

	info, err := adapter.Start(ctx)
	if err != nil {
		kind := "launch"
		switch {
		case IsHealthCheckTimeout(err):
			kind = "health_timeout"
		case IsLoadError(err):
			kind = "load"
		}
		launchFailuresTotal.WithLabelValues(key, kind).Inc()
		m.log.Error().Err(err).Str("model", key).Msg("model start failed")
		m.cfg.Publisher.Publish(Event{Name: "activate_failed", Model: key, Fields: map[string]any{"error": err.Error()}})
		return ReadyInfo{}, err
	}

	m.mu.Lock()
	m.instances[key] = &Instance{
		Desc:     desc,
		State:    StateReady,
		Endpoint: info.Endpoint,
		LoadedAt: time.Now(),
		adapter:  adapter,
	}
	m.roles[role] = key
	m.loads++
	m.mu.Unlock()
	loadsTotal.WithLabelValues(key).Inc()
	m.log.Info().Str("model", key).Str("role", string(role)).Dur("load_time", info.LoadTime).Msg("model ready")
	m.cfg.Publisher.Publish(Event{Name: "activate_ready", Model: key, Fields: map[string]any{"role": string(role)}})
	return info, nil
}

// Deactivate stops and removes one resident instance and clears any
// role pointer referencing it. Unknown keys error; a known model that
// simply is not resident is a no-op.
func (m *Manager) Deactivate(key string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if _, ok := m.reg.Describe(key); !ok {
		return ErrUnknownModel(key)
	}
	m.mu.Lock()
	inst := m.instances[key]
	if inst == nil {
		m.mu.Unlock()
		return nil
	}
	inst.State = StateStopping
	m.mu.Unlock()

	m.drain(inst)

	m.mu.Lock()
	delete(m.instances, key)
	m.clearRolePointersLocked(key)
	m.mu.Unlock()

	inst.adapter.Stop()
	m.cfg.Publisher.Publish(Event{Name: "deactivate", Model: key, Fields: map[string]any{}})
	return nil
}

// evictOthers removes every resident instance except keep. Unload
// failures are logged, never propagated: activation of the new
// exclusive model proceeds regardless.
func (m *Manager) evictOthers(keep string) {
	m.mu.Lock()
	var victims []*Instance
	for key, inst := range m.instances {
		if key == keep {
			continue
		}
		inst.State = StateStopping
		victims = append(victims, inst)
	}
	m.mu.Unlock()

	for _, inst := range victims {
		key := inst.Desc.Key
		m.log.Warn().Str("evicting", key).Str("for", keep).Msg("exclusivity eviction")
		m.drain(inst)

		m.mu.Lock()
		delete(m.instances, key)
		m.clearRolePointersLocked(key)
		m.evictions++
		m.mu.Unlock()

		inst.adapter.Stop()
		evictionsTotal.Inc()
		m.cfg.Publisher.Publish(Event{Name: "evict", Model: key, Fields: map[string]any{"for": keep}})
	}
}

// drain waits for in-flight generate calls on inst to finish, bounded
// by the drain timeout so a wedged call cannot block eviction forever.
func (m *Manager) drain(inst *Instance) {
	deadline := time.Now().Add(m.cfg.DrainTimeout)
	for {
		m.mu.RLock()
		inflight := inst.inflight
		m.mu.RUnlock()
		if inflight == 0 {
			return
		}
		if time.Now().After(deadline) {
			m.log.Warn().Str("model", inst.Desc.Key).Int("inflight", inflight).Msg("drain timeout, stopping anyway")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// residentExclusive returns the key of the resident exclusive instance,
// or "".
func (m *Manager) residentExclusive() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, inst := range m.instances {
		if inst.Desc.Exclusive {
			return key
		}
	}
	return ""
}

// clearRolePointersLocked drops role bindings referencing key. Caller
// holds mu.
func (m *Manager) clearRolePointersLocked(key string) {
	for role, bound := range m.roles {
		if bound == key {
			delete(m.roles, role)
		}
	}
}
