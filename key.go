package respcache

import "net/http"

// DefaultNamespace prefixes every key the cache writes.
const DefaultNamespace = "respcache"

// KeyFunc derives the storage key for a request. It must be deterministic and
// must not depend on the method: a mutation invalidates the key its URL
// shares with the cached read.
type KeyFunc func(namespace string, r *http.Request) string

// Key returns "<namespace>:<escaped path>[?<raw query>]". The path and query
// are used as received; no case folding or parameter reordering is applied,
// so "/users?a=1&b=2" and "/users?b=2&a=1" are distinct entries.
func Key(namespace string, r *http.Request) string {
	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery == "" {
		return namespace + ":" + path
	}
	return namespace + ":" + path + "?" + r.URL.RawQuery
}
