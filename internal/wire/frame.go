// Package wire implements the control-socket binary frame format (§6):
// an 8-byte magic, a 4-byte big-endian message type, and a type-dependent
// payload built from big-endian scalars, length-prefixed strings, and
// null-terminated string arrays.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the literal 8-byte frame header every message begins with.
const Magic = "upstart\n"

// nullString is the sentinel length marking a null string.
const nullString uint32 = 0xFFFFFFFF

// FrameError reports a malformed frame (bad magic, truncated payload, or
// an unknown message type), distinguished from ordinary I/O errors so
// callers (internal/control) can decide whether to drop the connection or
// just the one frame.
type FrameError struct {
	Op  string
	Err error
}

func (e *FrameError) Error() string { return fmt.Sprintf("wire: %s: %v", e.Op, e.Err) }
func (e *FrameError) Unwrap() error { return e.Err }

var errShortBuffer = errors.New("truncated frame")

// Encode serialises msg into a complete wire frame: magic, type, payload.
func Encode(msg Message) []byte {
	var w Writer
	msg.Marshal(&w)
	payload := w.Bytes()

	out := make([]byte, 0, len(Magic)+4+len(payload))
	out = append(out, Magic...)
	var typeBuf [4]byte
	binary.BigEndian.PutUint32(typeBuf[:], msg.Type())
	out = append(out, typeBuf[:]...)
	out = append(out, payload...)
	return out
}

// Decode parses a complete wire frame (as produced by Encode) into its
// typed Message. It returns a *FrameError if the magic is wrong, the type
// is unrecognised, or the payload is malformed/truncated.
func Decode(data []byte) (Message, error) {
	if len(data) < len(Magic)+4 {
		return nil, &FrameError{Op: "decode header", Err: errShortBuffer}
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, &FrameError{Op: "decode header", Err: errors.New("bad magic")}
	}
	typ := binary.BigEndian.Uint32(data[len(Magic) : len(Magic)+4])

	msg := newMessage(typ)
	if msg == nil {
		return nil, &FrameError{Op: "decode header", Err: fmt.Errorf("unknown message type 0x%04x", typ)}
	}

	r := NewReader(data[len(Magic)+4:])
	if err := msg.Unmarshal(r); err != nil {
		return nil, &FrameError{Op: fmt.Sprintf("decode payload for 0x%04x", typ), Err: err}
	}
	if !r.Exhausted() {
		return nil, &FrameError{Op: "decode payload", Err: errors.New("trailing bytes after payload")}
	}
	return msg, nil
}

// Message is one wire-protocol message: its stable type code plus the
// ability to marshal/unmarshal its own payload.
type Message interface {
	Type() uint32
	Marshal(w *Writer)
	Unmarshal(r *Reader) error
}
