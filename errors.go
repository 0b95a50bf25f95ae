package respcache

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidEngine is returned by New when the engine name is not one of
	// memory, redis or memcached.
	ErrInvalidEngine = errors.New("respcache: invalid engine name")
	// ErrMissingEngineConfig is returned by New when the selected engine has no
	// connection configuration.
	ErrMissingEngineConfig = errors.New("respcache: missing engine configuration")
	// ErrInvalidPolicy is returned when a policy is built with invalid arguments.
	ErrInvalidPolicy = errors.New("respcache: invalid policy")
)

// ConfigError reports a configuration problem found by New. It is fatal:
// no Cache is returned.
type ConfigError struct {
	Engine Engine
	Field  string // offending field, e.g. "redis.addrs"; empty for the engine name
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %q (supported: %s, %s, %s)", e.Err, e.Engine, EngineMemory, EngineRedis, EngineMemcached)
	}
	return fmt.Sprintf("%v: %s (engine %q)", e.Err, e.Field, e.Engine)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MethodMismatchError is reported to the ErrorHandler when a policy runs on a
// method it does not support. It never aborts the request: the request is
// passed downstream without caching.
type MethodMismatchError struct {
	Policy Kind
	Method string
}

func (e *MethodMismatchError) Error() string {
	return fmt.Sprintf("respcache: %s policy can only be used on %s requests, got %s",
		e.Policy, methodList(e.Policy), e.Method)
}

// BackendError describes a failed provider call. It is logged and passed to
// Hooks but never surfaces to the request: get degrades to a miss, set and
// del to no-ops.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("respcache: backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// PolicyPanicError wraps a panic recovered while a policy middleware (or the
// handler it wraps) was running.
type PolicyPanicError struct {
	Policy Kind
	Value  any
	Stack  []byte
}

func (e *PolicyPanicError) Error() string {
	return fmt.Sprintf("respcache: panic in %s policy: %v", e.Policy, e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *PolicyPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorHandler receives errors raised while a policy runs.
//
// For *MethodMismatchError the request continues after the handler returns,
// so the handler must not write a response. For *PolicyPanicError nothing
// else will be written; the handler owns the response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
