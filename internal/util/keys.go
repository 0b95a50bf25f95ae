package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaxCompactKeyLen is memcached's key length limit.
const MaxCompactKeyLen = 250

// maxPrefixLen leaves room for "#" and the hex digest within MaxCompactKeyLen.
const maxPrefixLen = MaxCompactKeyLen - 1 - sha256.Size*2

// CompactKey returns key unchanged when it is a legal memcached key, otherwise
// a deterministic replacement of at most MaxCompactKeyLen bytes: the first
// maxPrefixLen legal bytes of key, then "#" and the hex SHA-256 of the full key.
func CompactKey(key string) string {
	if legal(key) {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	prefix := make([]byte, 0, maxPrefixLen)
	for i := 0; i < len(key) && len(prefix) < cap(prefix); i++ {
		if c := key[i]; c > ' ' && c != 0x7f {
			prefix = append(prefix, c)
		}
	}
	return string(prefix) + "#" + hex.EncodeToString(sum[:])
}

func legal(key string) bool {
	if len(key) == 0 || len(key) > MaxCompactKeyLen {
		return false
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}
