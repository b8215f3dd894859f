package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"tutord/internal/registry"
	"tutord/pkg/types"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSON enforces content type and body size before decoding.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleStatus godoc
// @Summary Full service status
// @Produce json
// @Success 200 {object} types.StatusResponse
// @Router /api/status [get]
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Status())
}

// handleModels lists compatible models, optionally filtered by
// ?role=chat|evaluation.
func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	roleParam := r.URL.Query().Get("role")
	var role registry.Role
	if roleParam != "" {
		parsed, ok := registry.ParseRole(roleParam)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown role: "+roleParam)
			return
		}
		role = parsed
	}
	descs := s.svc.Registry().List(role)
	models := make([]types.ModelSummary, 0, len(descs))
	for _, d := range descs {
		roles := make([]string, 0, len(d.Roles))
		for _, rr := range d.Roles {
			roles = append(roles, string(rr))
		}
		models = append(models, types.ModelSummary{
			Key:              d.Key,
			DisplayName:      d.DisplayName,
			VRAMEstimateMB:   d.VRAMEstimateMB,
			Backend:          string(d.Backend),
			Exclusive:        d.Exclusive,
			Roles:            roles,
			ReasoningCapable: d.ReasoningCapable,
			Compatible:       true,
		})
	}
	writeJSON(w, types.ModelsResponse{Models: models})
}

// handleActivate godoc
// @Summary Activate a model for a role
// @Accept json
// @Produce json
// @Param request body types.ActivateRequest true "model and role"
// @Success 200 {object} types.ActivateResponse
// @Failure 404 {object} types.ErrorResponse "unknown model"
// @Failure 409 {object} types.ErrorResponse "exclusivity or compatibility conflict"
// @Failure 502 {object} types.ErrorResponse "backend failed to start"
// @Router /api/models/activate [post]
func (s *server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req types.ActivateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	role := registry.RoleChat
	if req.Role != "" {
		parsed, ok := registry.ParseRole(req.Role)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "unknown role: "+req.Role)
			return
		}
		role = parsed
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	info, err := s.svc.Activate(ctx, req.Model, role)
	if err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, types.ActivateResponse{
		Model:       req.Model,
		Role:        string(role),
		Endpoint:    info.Endpoint,
		LoadSeconds: info.LoadTime.Seconds(),
	})
}

func (s *server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req types.DeactivateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if err := s.svc.Deactivate(req.Model); err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "model": req.Model})
}

// handleClearMemory drops all chat sessions and forces a reclaim pass on
// resident in-process backends.
func (s *server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	cleared := 0
	if s.hist != nil {
		cleared = s.hist.ClearAll()
	}
	s.svc.ClearResources()
	writeJSON(w, map[string]any{"status": "ok", "sessions_cleared": cleared})
}
