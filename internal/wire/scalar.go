package wire

import (
	"encoding/binary"
	"errors"
)

// Writer accumulates a message payload using the scalar encodings from §6:
// i/u are 4-byte big-endian, s is a length-prefixed byte string (or the
// null sentinel), and string arrays are a run of s entries terminated by
// a null s.
type Writer struct {
	buf []byte
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutInt32(1)
	} else {
		w.PutInt32(0)
	}
}

// PutString writes s length-prefixed; it never writes the null sentinel
// (PutNullableString does that for an absent nullable field).
func (w *Writer) PutString(s string) { w.putString(s, true) }

// PutNullableString writes s if present is true, otherwise the null
// sentinel.
func (w *Writer) PutNullableString(s string, present bool) { w.putString(s, present) }

func (w *Writer) putString(s string, present bool) {
	if !present {
		w.PutUint32(nullString)
		return
	}
	w.PutUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutStringArray writes each element as an s entry, followed by a
// terminating null s.
func (w *Writer) PutStringArray(ss []string) {
	for _, s := range ss {
		w.PutString(s)
	}
	w.PutUint32(nullString)
}

// Reader consumes a payload written by Writer, tracking the read
// position; every read returns its own error (errTruncated past the end).
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Exhausted reports whether every byte of the payload has been consumed;
// Decode uses this to reject frames with trailing garbage.
func (r *Reader) Exhausted() bool { return r.pos >= len(r.buf) }

var errTruncated = errors.New("truncated payload")

func (r *Reader) Uint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.Int32()
	return v != 0, err
}

// String reads an s field, returning ("", false, nil) for the null
// sentinel rather than an error: nullability is a normal value here, not
// a decode failure.
func (r *Reader) String() (string, bool, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", false, err
	}
	if n == nullString {
		return "", false, nil
	}
	if r.pos+int(n) > len(r.buf) {
		return "", false, errTruncated
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, true, nil
}

// StringArray reads a run of s entries up to and including the
// terminating null sentinel, returning just the present strings.
func (r *Reader) StringArray() ([]string, error) {
	var out []string
	for {
		s, present, err := r.String()
		if err != nil {
			return nil, err
		}
		if !present {
			return out, nil
		}
		out = append(out, s)
	}
}
