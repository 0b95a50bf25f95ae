package respcache

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/unkn0wn-root/respcache/codec"
)

// Entry is a cached response. The default codec is msgpack; any
// codec.Codec[Entry] can be configured, including ProtobufCodec.
type Entry struct {
	Status      int    `json:"status" msgpack:"status" cbor:"1,keyasint"`
	ContentType string `json:"content_type,omitempty" msgpack:"content_type,omitempty" cbor:"2,keyasint,omitempty"`
	Body        []byte `json:"body" msgpack:"body" cbor:"3,keyasint"`
}

// ProtobufCodec encodes an Entry as the protobuf message
//
//	message Entry {
//	  int64  status       = 1;
//	  string content_type = 2;
//	  bytes  body         = 3;
//	}
//
// so entries can be read by non-Go services sharing the backend.
type ProtobufCodec struct{}

var _ codec.Codec[Entry] = ProtobufCodec{}

const (
	pbStatus      protowire.Number = 1
	pbContentType protowire.Number = 2
	pbBody        protowire.Number = 3
)

func (ProtobufCodec) Encode(e Entry) ([]byte, error) {
	b := make([]byte, 0, len(e.Body)+len(e.ContentType)+16)
	if e.Status != 0 {
		b = protowire.AppendTag(b, pbStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(e.Status)))
	}
	if e.ContentType != "" {
		b = protowire.AppendTag(b, pbContentType, protowire.BytesType)
		b = protowire.AppendString(b, e.ContentType)
	}
	if len(e.Body) > 0 {
		b = protowire.AppendTag(b, pbBody, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Body)
	}
	return b, nil
}

func (ProtobufCodec) Decode(b []byte) (Entry, error) {
	var e Entry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Entry{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == pbStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Entry{}, protowire.ParseError(n)
			}
			e.Status = int(int64(v))
			b = b[n:]
		case num == pbContentType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Entry{}, protowire.ParseError(n)
			}
			e.ContentType = v
			b = b[n:]
		case num == pbBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Entry{}, protowire.ParseError(n)
			}
			e.Body = append([]byte(nil), v...)
			b = b[n:]
		default:
			// unknown field: skip for forward compatibility
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Entry{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return e, nil
}
