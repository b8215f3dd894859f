package manager

import (
	"context"

	"tutord/internal/extract"
	"tutord/internal/registry"
)

// Generate routes one inference call to the instance bound to role.
// Reasoning-capable models have their deliberation trace stripped
// before the text is returned. One transparent retry is attempted on a
// failed backend call; a second failure marks the instance Failed so
// the next activation replaces it.
func (m *Manager) Generate(ctx context.Context, role registry.Role, req GenerationRequest) (GeneratedText, error) {
	m.mu.Lock()
	key, bound := m.roles[role]
	if !bound {
		m.mu.Unlock()
		return GeneratedText{}, ErrNotReady("no model bound to role " + string(role))
	}
	inst := m.instances[key]
	if inst == nil || inst.State != StateReady {
		m.mu.Unlock()
		return GeneratedText{}, ErrNotReady(key)
	}
	// Hold a read-reference for the duration of the call so an
	// eviction waits for us instead of freeing resources mid-flight.
	inst.inflight++
	adapter := inst.adapter
	desc := inst.Desc
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		inst.inflight--
		m.mu.Unlock()
	}()

	req.History = truncateHistory(req.History)

	out, err := adapter.Generate(ctx, req)
	if err != nil && IsInferenceError(err) && ctx.Err() == nil {
		m.log.Warn().Err(err).Str("model", key).Msg("generate failed, retrying once")
		out, err = adapter.Generate(ctx, req)
	}
	if err != nil {
		if IsInferenceError(err) {
			m.mu.Lock()
			inst.State = StateFailed
			inst.LastErr = err.Error()
			m.mu.Unlock()
			m.cfg.Publisher.Publish(Event{Name: "instance_failed", Model: key, Fields: map[string]any{"error": err.Error()}})
		}
		return GeneratedText{}, err
	}

	generationSeconds.WithLabelValues(key, string(role)).Observe(out.Duration.Seconds())
	if desc.ReasoningCapable {
		out.Text = extract.FinalAnswer(out.Text)
	}
	return out, nil
}
