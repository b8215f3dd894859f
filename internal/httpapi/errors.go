package httpapi

import (
	"encoding/json"
	"net/http"

	"tutord/internal/manager"
	"tutord/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// managerStatus maps manager error kinds to HTTP status codes.
// Unknown key -> 404; exclusivity/role/version conflict -> 409; backend
// launch, load, and inference failures -> 502; unbound or non-ready
// role -> 503.
func managerStatus(err error) int {
	switch {
	case manager.IsUnknownModel(err):
		return http.StatusNotFound
	case manager.IsIncompatibleModel(err):
		return http.StatusConflict
	case manager.IsLaunchError(err), manager.IsHealthCheckTimeout(err),
		manager.IsLoadError(err), manager.IsInferenceError(err):
		return http.StatusBadGateway
	case manager.IsNotReady(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeManagerError maps and writes a manager error.
func writeManagerError(w http.ResponseWriter, err error) {
	writeJSONError(w, managerStatus(err), err.Error())
}
