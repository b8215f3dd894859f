package manager

import "fmt"

// unknownModelError: the requested key is absent from the registry.
type unknownModelError struct{ key string }

func (e unknownModelError) Error() string { return "unknown model: " + e.key }

// ErrUnknownModel constructs an unknownModelError.
func ErrUnknownModel(key string) error { return unknownModelError{key: key} }

// IsUnknownModel reports whether err indicates a missing registry key.
func IsUnknownModel(err error) bool {
	_, ok := err.(unknownModelError)
	return ok
}

// incompatibleModelError: role/version/exclusivity conflict.
type incompatibleModelError struct {
	key    string
	reason string
}

func (e incompatibleModelError) Error() string {
	return "incompatible model " + e.key + ": " + e.reason
}

// ErrIncompatibleModel constructs an incompatibleModelError.
func ErrIncompatibleModel(key, reason string) error {
	return incompatibleModelError{key: key, reason: reason}
}

// IsIncompatibleModel reports whether err indicates a compatibility,
// role, or exclusivity conflict.
func IsIncompatibleModel(err error) bool {
	_, ok := err.(incompatibleModelError)
	return ok
}

// launchError: the backend process exited before becoming healthy.
// Diagnostics carries the captured stderr/stdout tail.
type launchError struct {
	key         string
	diagnostics string
	cause       error
}

func (e launchError) Error() string {
	msg := "launch failed for " + e.key
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.diagnostics != "" {
		msg += "; output tail: " + e.diagnostics
	}
	return msg
}

func (e launchError) Unwrap() error { return e.cause }

// ErrLaunch constructs a launchError with captured process output.
func ErrLaunch(key string, cause error, diagnostics string) error {
	return launchError{key: key, cause: cause, diagnostics: diagnostics}
}

// IsLaunchError reports whether err indicates a failed process launch.
func IsLaunchError(err error) bool {
	_, ok := err.(launchError)
	return ok
}

// LaunchDiagnostics returns the captured output tail, if err is a
// launch error.
func LaunchDiagnostics(err error) string {
	if le, ok := err.(launchError); ok {
		return le.diagnostics
	}
	return ""
}

// healthCheckTimeoutError: the backend never became healthy in time.
type healthCheckTimeoutError struct {
	key     string
	timeout string
}

func (e healthCheckTimeoutError) Error() string {
	return "health check timed out for " + e.key + " after " + e.timeout
}

// ErrHealthCheckTimeout constructs a healthCheckTimeoutError.
func ErrHealthCheckTimeout(key, timeout string) error {
	return healthCheckTimeoutError{key: key, timeout: timeout}
}

// IsHealthCheckTimeout reports whether err indicates a readiness
// timeout (as opposed to a crashed launch).
func IsHealthCheckTimeout(err error) bool {
	_, ok := err.(healthCheckTimeoutError)
	return ok
}

// loadError: in-process weight/file load failure.
type loadError struct {
	key   string
	cause error
}

func (e loadError) Error() string { return "load failed for " + e.key + ": " + e.cause.Error() }
func (e loadError) Unwrap() error { return e.cause }

// ErrLoad constructs a loadError.
func ErrLoad(key string, cause error) error { return loadError{key: key, cause: cause} }

// IsLoadError reports whether err indicates an in-process load failure.
func IsLoadError(err error) bool {
	_, ok := err.(loadError)
	return ok
}

// notReadyError: generate was called against a role or instance that is
// not in the Ready state.
type notReadyError struct{ what string }

func (e notReadyError) Error() string { return "not ready: " + e.what }

// ErrNotReady constructs a notReadyError.
func ErrNotReady(what string) error { return notReadyError{what: what} }

// IsNotReady reports whether err indicates an unbound role or a
// non-Ready instance.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

// inferenceError: the backend call failed or returned a malformed
// payload.
type inferenceError struct {
	key   string
	cause error
}

func (e inferenceError) Error() string {
	return fmt.Sprintf("inference failed on %s: %v", e.key, e.cause)
}

func (e inferenceError) Unwrap() error { return e.cause }

// ErrInference constructs an inferenceError.
func ErrInference(key string, cause error) error { return inferenceError{key: key, cause: cause} }

// IsInferenceError reports whether err indicates a failed backend call.
func IsInferenceError(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}
