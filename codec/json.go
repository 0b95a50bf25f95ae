package codec

import "encoding/json"

// JSON encodes values with encoding/json. Byte slices are base64 encoded,
// which makes it the most readable and the least compact choice.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
