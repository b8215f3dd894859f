package manager

import (
	"sort"
	"time"

	"tutord/pkg/types"
)

// Status builds the detailed response for GET /api/status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		Roles:          make(map[string]string, len(m.roles)),
		Registry:       m.reg.Snapshot(),
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
		LoadsTotal:     m.loads,
		EvictionsTotal: m.evictions,
	}
	for role, key := range m.roles {
		resp.Roles[string(role)] = key
	}
	resp.Instances = make([]types.InstanceStatus, 0, len(m.instances))
	for key, inst := range m.instances {
		st := types.InstanceStatus{
			Model:     key,
			State:     string(inst.State),
			Endpoint:  inst.Endpoint,
			LastError: inst.LastErr,
			Inflight:  inst.inflight,
			EstVRAMMB: inst.Desc.VRAMEstimateMB,
		}
		if !inst.LoadedAt.IsZero() {
			st.LoadedAt = inst.LoadedAt.Unix()
		}
		resp.Instances = append(resp.Instances, st)
	}
	sort.Slice(resp.Instances, func(i, j int) bool {
		return resp.Instances[i].Model < resp.Instances[j].Model
	})
	return resp
}
