// Package manager owns model lifecycle and exclusive-access arbitration
// for the tutoring backend. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, Close/ClearResources.
//   - config.go: ManagerConfig and package defaults.
//   - types.go: canonical request/response values and instance state.
//   - errors.go: typed error taxonomy and Is* predicates.
//   - adapter.go: the BackendAdapter contract and adapter construction.
//   - adapter_server.go: subprocess llama-server adapter (spawn, health
//     polling, graceful stop).
//   - adapter_inprocess.go / adapter_inprocess_stub.go: in-process GGUF
//     adapter via go-llama.cpp, behind the 'llama' build tag.
//   - prompt.go: per-family prompt markup and history truncation.
//   - activate.go: Activate/Deactivate, exclusivity eviction, draining.
//   - generate.go: role-routed inference entry point.
//   - status.go: status reporting for the HTTP layer.
//   - events.go: lifecycle event publishing.
//   - metrics.go: prometheus counters.
//
// The residency invariant enforced here: if any resident instance is
// exclusive, it is the only resident instance. Loading an exclusive
// model evicts everything else first so GPU memory is freed before the
// large model starts.
package manager
