// Package wire implements the hand-rolled, length-delimited, field-tagged
// binary codec the G3 transport uses to talk to the panel's RPC service
// (spec §4.A). No code generation is assumed; message shapes are
// documented as field tables in the g3 package that uses this codec.
//
// No teacher file implements a binary wire protocol (the teacher's wire
// format is HTML over HTTP), so this package is built fresh from spec.md's
// own algorithmic description; its varint/tag shape matches protobuf's
// well-known wire format, which is the natural reference point for "field
// number << 3 | wire type" framing.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// WireType identifies how a field's payload is encoded.
type WireType uint8

const (
	WireVarint WireType = 0
	WireFixed32 WireType = 5
	WireFixed64 WireType = 1
	WireBytes   WireType = 2
)

// ErrTruncated indicates a message ended before a complete field could be
// read. The G3 transport classifies this as a terminal CodecError.
var ErrTruncated = errors.New("wire: truncated message")

// ErrOverflow indicates a varint exceeded 64 bits without a terminating
// byte. Classified as a terminal CodecError.
var ErrOverflow = errors.New("wire: varint overflow")

// PutUvarint appends v to buf using the standard seven-bits-per-byte,
// continuation-bit varint encoding and returns the extended slice.
func PutUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// Uvarint decodes a varint from the front of buf, returning the value, the
// number of bytes consumed, and an error if the buffer was truncated or the
// varint overflowed 64 bits.
func Uvarint(buf []byte) (uint64, int, error) {
	v, n := binary.Uvarint(buf)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	if n < 0 {
		return 0, 0, ErrOverflow
	}
	return v, n, nil
}

// FieldTag builds the field header byte sequence: (field_number << 3) |
// wire_type, itself varint-encoded.
func FieldTag(fieldNumber int, wt WireType) uint64 {
	return uint64(fieldNumber)<<3 | uint64(wt)
}

// DecodeTag splits a decoded tag value back into field number and wire type.
func DecodeTag(tag uint64) (fieldNumber int, wt WireType) {
	return int(tag >> 3), WireType(tag & 0x7)
}

// PutVarintField appends a complete varint-typed field (tag + payload).
func PutVarintField(buf []byte, fieldNumber int, v uint64) []byte {
	buf = PutUvarint(buf, FieldTag(fieldNumber, WireVarint))
	return PutUvarint(buf, v)
}

// PutBytesField appends a complete length-delimited field (tag + varint
// length + payload bytes).
func PutBytesField(buf []byte, fieldNumber int, payload []byte) []byte {
	buf = PutUvarint(buf, FieldTag(fieldNumber, WireBytes))
	buf = PutUvarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// PutFixed32Field appends a 32-bit fixed-width field, little-endian.
func PutFixed32Field(buf []byte, fieldNumber int, v uint32) []byte {
	buf = PutUvarint(buf, FieldTag(fieldNumber, WireFixed32))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutFixed64Field appends a 64-bit fixed-width field, little-endian.
func PutFixed64Field(buf []byte, fieldNumber int, v uint64) []byte {
	buf = PutUvarint(buf, FieldTag(fieldNumber, WireFixed64))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Field is one decoded (field_number, wire_type, payload_slice) triple
// yielded by the dispatch loop. payload is a sub-slice of the original
// buffer: decode never allocates beyond the decoded values themselves.
type Field struct {
	Number  int
	Type    WireType
	Payload []byte // raw bytes for WireBytes; encoded scalar bytes otherwise
}

// Uint64 interprets a varint or fixed-width field's payload as an integer.
func (f Field) Uint64() (uint64, error) {
	switch f.Type {
	case WireVarint:
		v, _, err := Uvarint(f.Payload)
		return v, err
	case WireFixed32:
		if len(f.Payload) < 4 {
			return 0, ErrTruncated
		}
		return uint64(binary.LittleEndian.Uint32(f.Payload)), nil
	case WireFixed64:
		if len(f.Payload) < 8 {
			return 0, ErrTruncated
		}
		return binary.LittleEndian.Uint64(f.Payload), nil
	default:
		return 0, ErrTruncated
	}
}

// Bytes returns the raw payload for a length-delimited field.
func (f Field) Bytes() ([]byte, error) {
	if f.Type != WireBytes {
		return nil, ErrTruncated
	}
	return f.Payload, nil
}

// Dispatch scans buf field-by-field, invoking yield for each decoded
// Field. It returns early (without error) if yield returns false. Unknown
// field numbers are simply handed to yield like any other; skipping them
// is the caller's responsibility (spec: "unknown field numbers are
// skipped" refers to caller dispatch tables, not this primitive, which
// must surface every field so callers can choose).
func Dispatch(buf []byte, yield func(Field) bool) error {
	for len(buf) > 0 {
		tagVal, n, err := Uvarint(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
		number, wt := DecodeTag(tagVal)

		var payload []byte
		switch wt {
		case WireVarint:
			_, n, err := Uvarint(buf)
			if err != nil {
				return err
			}
			payload = buf[:n]
			buf = buf[n:]
		case WireFixed32:
			if len(buf) < 4 {
				return ErrTruncated
			}
			payload = buf[:4]
			buf = buf[4:]
		case WireFixed64:
			if len(buf) < 8 {
				return ErrTruncated
			}
			payload = buf[:8]
			buf = buf[8:]
		case WireBytes:
			length, n, err := Uvarint(buf)
			if err != nil {
				return err
			}
			buf = buf[n:]
			if uint64(len(buf)) < length {
				return ErrTruncated
			}
			payload = buf[:length]
			buf = buf[length:]
		default:
			return ErrTruncated
		}

		if !yield(Field{Number: number, Type: wt, Payload: payload}) {
			return nil
		}
	}
	return nil
}

// ReadLengthPrefixedMessage reads one length-prefixed frame from r: a
// varint length followed by that many bytes of message payload. Used to
// frame RPC request/response messages and stream notifications over the
// plain TCP channel (spec §4.E "opens a plaintext RPC channel").
func ReadLengthPrefixedMessage(r io.Reader) ([]byte, error) {
	var lenBuf [binary.MaxVarintLen64]byte
	length, err := readUvarintFromReader(r, lenBuf[:])
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

// WriteLengthPrefixedMessage writes a varint length prefix followed by
// payload.
func WriteLengthPrefixedMessage(w io.Writer, payload []byte) error {
	buf := PutUvarint(nil, uint64(len(payload)))
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

func readUvarintFromReader(r io.Reader, scratch []byte) (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < binary.MaxVarintLen64; i++ {
		b := scratch[:1]
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, ErrTruncated
		}
		if b[0] < 0x80 {
			if i == binary.MaxVarintLen64-1 && b[0] > 1 {
				return 0, ErrOverflow
			}
			return x | uint64(b[0])<<s, nil
		}
		x |= uint64(b[0]&0x7f) << s
		s += 7
	}
	return 0, ErrOverflow
}
