package protocol

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed size of the wire frame header:
// [length uint32 LE][pid uint16 LE][type uint8][check uint8 = type XOR 0xFF]
const HeaderSize = 8

// Frame is one wire-level message: fixed header plus opaque payload bytes.
// The payload is produced and consumed by the value codec, this layer only
// cares about its length.
type Frame struct {
	Pid     uint16
	Type    TypeCode
	Payload []byte
}

// ErrCorrupt signals that the buffered bytes do not contain a valid frame
// header. There is no resync strategy, the caller must discard the entire
// receive buffer and resume accumulating fresh bytes.
var ErrCorrupt = errors.New("corrupt frame header")

// Encode produces the wire bytes for one frame (header plus payload).
func Encode(pid uint16, tipe TypeCode, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint16(buf[4:6], pid)
	buf[6] = byte(tipe)
	buf[7] = byte(tipe) ^ 0xFF
	copy(buf[HeaderSize:], payload)
	return buf
}

// Decode extracts the first complete frame from buf and returns it together
// with the number of bytes consumed. A nil frame with no error means more
// data is needed. ErrCorrupt is returned as soon as the check byte of a
// parsable header does not match the type code.
func Decode(buf []byte) (*Frame, int, error) {
	if len(buf) < HeaderSize {
		return nil, 0, nil
	}

	length := binary.LittleEndian.Uint32(buf[0:4])
	pid := binary.LittleEndian.Uint16(buf[4:6])
	tipe := TypeCode(buf[6])

	if buf[7] != byte(tipe)^0xFF {
		return nil, 0, ErrCorrupt
	}

	total := HeaderSize + int(length)
	if len(buf) < total {
		return nil, 0, nil
	}

	// Copy the payload so the caller may reuse its receive buffer
	payload := make([]byte, length)
	copy(payload, buf[HeaderSize:total])

	return &Frame{Pid: pid, Type: tipe, Payload: payload}, total, nil
}
