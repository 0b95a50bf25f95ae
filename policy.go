package respcache

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind identifies a caching policy.
type Kind uint8

const (
	// KindForever caches read responses without expiry.
	KindForever Kind = iota + 1
	// KindDuration caches read responses for a fixed TTL.
	KindDuration
	// KindResetOnMutate invalidates the cached read response of a URL when a
	// mutation on the same URL reports success.
	KindResetOnMutate
)

func (k Kind) String() string {
	switch k {
	case KindForever:
		return "forever"
	case KindDuration:
		return "duration"
	case KindResetOnMutate:
		return "reset-on-mutate"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

var (
	readMethods   = []string{http.MethodGet, http.MethodHead}
	mutateMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
)

func methodsFor(k Kind) []string {
	if k == KindResetOnMutate {
		return mutateMethods
	}
	return readMethods
}

func methodList(k Kind) string { return strings.Join(methodsFor(k), ", ") }

// Indicator is the top-level response field that marks a mutation as
// successful, e.g. {Key: "success", Value: true}.
type Indicator struct {
	Key   string
	Value any
}

// Policy is an immutable caching strategy. Build it with Forever, Duration or
// ResetOnMutate; the zero value is invalid.
type Policy struct {
	kind      Kind
	ttl       time.Duration
	indicator Indicator
}

// Forever caches GET/HEAD responses with no expiry.
func Forever() Policy { return Policy{kind: KindForever} }

// Duration caches GET/HEAD responses for ttl, which must be positive.
func Duration(ttl time.Duration) (Policy, error) {
	if ttl <= 0 {
		return Policy{}, fmt.Errorf("%w: duration ttl must be positive, got %v", ErrInvalidPolicy, ttl)
	}
	return Policy{kind: KindDuration, ttl: ttl}, nil
}

// ResetOnMutate invalidates the cached entry of the request URL when a
// POST/PUT/PATCH/DELETE response carries ind.
func ResetOnMutate(ind Indicator) (Policy, error) {
	if ind.Key == "" {
		return Policy{}, fmt.Errorf("%w: indicator key is required", ErrInvalidPolicy)
	}
	return Policy{kind: KindResetOnMutate, indicator: ind}, nil
}

func (p Policy) Kind() Kind           { return p.kind }
func (p Policy) TTL() time.Duration   { return p.ttl }
func (p Policy) Indicator() Indicator { return p.indicator }

func (p Policy) valid() bool { return p.kind >= KindForever && p.kind <= KindResetOnMutate }

func (p Policy) allows(method string) bool {
	for _, m := range methodsFor(p.kind) {
		if m == method {
			return true
		}
	}
	return false
}
