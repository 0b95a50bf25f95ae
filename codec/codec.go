// Package codec serializes cached values to bytes.
// Every codec here is safe for concurrent use.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
