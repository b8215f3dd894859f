package registry

import (
	"strconv"
	"strings"

	"tutord/pkg/types"
)

// Role is a logical assignment pointing at one resident model.
type Role string

const (
	RoleChat       Role = "chat"
	RoleEvaluation Role = "evaluation"
)

// ParseRole validates a role string from the API.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleChat:
		return RoleChat, true
	case RoleEvaluation:
		return RoleEvaluation, true
	}
	return "", false
}

// BackendKind selects how a model is brought online.
type BackendKind string

const (
	// BackendSubprocess runs an external llama-server process and talks
	// to it over HTTP.
	BackendSubprocess BackendKind = "subprocess-server"
	// BackendInProcess loads GGUF weights into this process.
	BackendInProcess BackendKind = "in-process"
)

// PromptFormat names the native chat markup of a model family.
type PromptFormat string

const (
	// PromptChannels uses explicit channel tags separating reasoning
	// from final segments (gpt-oss family).
	PromptChannels PromptFormat = "channels"
	// PromptRoleHeaders uses role-header delimiters (llama 3 family).
	PromptRoleHeaders PromptFormat = "role-headers"
	// PromptInstruct uses plain [INST] instruction brackets (mistral
	// family).
	PromptInstruct PromptFormat = "instruct"
)

// Descriptor is the static capability record for one known model.
// Populated once at process start; never mutated afterwards.
type Descriptor struct {
	Key              string
	DisplayName      string
	VRAMEstimateMB   int
	Backend          BackendKind
	Exclusive        bool
	Roles            []Role
	ReasoningCapable bool
	Prompt           PromptFormat
	// ModelFile is the GGUF filename resolved under the configured
	// models directory.
	ModelFile string
	// Port is the fixed llama-server port for subprocess models.
	Port int
	// ContextSize passed to the backend (-c flag / n_ctx).
	ContextSize int
	// MinRuntime is the minimum runtime library version ("major.minor")
	// required to load this model in-process. Empty means always
	// compatible.
	MinRuntime string
}

// SupportsRole reports whether the descriptor can serve the given role.
func (d Descriptor) SupportsRole(r Role) bool {
	for _, have := range d.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// RuntimeInfo describes the host runtime the compatibility predicate is
// evaluated against.
type RuntimeInfo struct {
	// LibraryVersion is the in-process runtime version, e.g. "4.49.0".
	LibraryVersion string
}

// Registry is the read-only capability table. Compatibility is decided
// once at construction and never re-evaluated.
type Registry struct {
	byKey  map[string]Descriptor
	order  []string
	compat map[string]bool
}

// New builds a registry from descriptors, evaluating each compatibility
// predicate against rt.
func New(descs []Descriptor, rt RuntimeInfo) *Registry {
	r := &Registry{
		byKey:  make(map[string]Descriptor, len(descs)),
		compat: make(map[string]bool, len(descs)),
	}
	for _, d := range descs {
		if _, dup := r.byKey[d.Key]; dup {
			continue
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
		r.compat[d.Key] = compatible(d, rt)
	}
	return r
}

// Describe returns the descriptor for key.
func (r *Registry) Describe(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Compatible reports whether key passed its compatibility predicate.
// Unknown keys are not compatible.
func (r *Registry) Compatible(key string) bool {
	return r.compat[key]
}

// List returns compatible descriptors, optionally filtered by role.
// Pass an empty role for all compatible models.
func (r *Registry) List(role Role) []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		d := r.byKey[key]
		if !r.compat[key] {
			continue
		}
		if role != "" && !d.SupportsRole(role) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Snapshot projects every descriptor (compatible or not) into the API
// shape for /api/status.
func (r *Registry) Snapshot() []types.ModelSummary {
	out := make([]types.ModelSummary, 0, len(r.order))
	for _, key := range r.order {
		d := r.byKey[key]
		roles := make([]string, 0, len(d.Roles))
		for _, role := range d.Roles {
			roles = append(roles, string(role))
		}
		out = append(out, types.ModelSummary{
			Key:              d.Key,
			DisplayName:      d.DisplayName,
			VRAMEstimateMB:   d.VRAMEstimateMB,
			Backend:          string(d.Backend),
			Exclusive:        d.Exclusive,
			Roles:            roles,
			ReasoningCapable: d.ReasoningCapable,
			Compatible:       r.compat[key],
		})
	}
	return out
}

// compatible evaluates the runtime-version constraint. Subprocess
// models never depend on the in-process runtime library.
func compatible(d Descriptor, rt RuntimeInfo) bool {
	if d.MinRuntime == "" || d.Backend == BackendSubprocess {
		return true
	}
	have, ok := parseMajorMinor(rt.LibraryVersion)
	if !ok {
		return false
	}
	want, ok := parseMajorMinor(d.MinRuntime)
	if !ok {
		return false
	}
	return have >= want
}

// parseMajorMinor turns "4.49.0" into 4.49.
func parseMajorMinor(v string) (float64, bool) {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) < 2 {
		return 0, false
	}
	f, err := strconv.ParseFloat(parts[0]+"."+parts[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
