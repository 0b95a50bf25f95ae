package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindEntry byte = 1

	headerLen = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("respcache: corrupt entry")
	magic4     = [...]byte{'R', 'S', 'P', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame is a decoded stored entry.
// ExpiresAt is unix nanoseconds; 0 means the entry never expires.
type Frame struct {
	Gen       uint64
	ExpiresAt int64
	Payload   []byte
}

// Expired reports whether the frame is past its expiry at now (unix nanos).
func (f Frame) Expired(now int64) bool {
	return f.ExpiresAt != 0 && now >= f.ExpiresAt
}

// Entry: magic(4) | ver(1) | kind(1=entry) | gen(u64 be) | expiresAt(i64 be) | plen(u32 be) | payload(plen)
func Encode(f Frame) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(f.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], f.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(f.ExpiresAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(f.Payload)))
	buf.Write(u4[:])

	buf.Write(f.Payload)
	return buf.Bytes()
}

// Decode parses an entry frame. The returned payload aliases b.
func Decode(b []byte) (Frame, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Frame{}, ErrCorrupt
	}

	off := 6

	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if exp < 0 {
		return Frame{}, ErrCorrupt
	}

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen != len(b)-off { // exact length; trailing bytes are corruption
		return Frame{}, ErrCorrupt
	}

	return Frame{Gen: gen, ExpiresAt: exp, Payload: b[off : off+plen]}, nil
}
