package io

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxArraySize is the default limit for the length of a single decoded
// byte-slice.
const MaxArraySize = 0x1000000

// BinReader is a byte buffer reader with a sticky error. Every read after a
// failed one is a no-op, so that a struct with many fields can be decoded
// with a single error check at the end.
type BinReader struct {
	data []byte
	pos  int
	Err  error
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return &BinReader{data: b}
}

// Len returns the number of unread bytes.
func (r *BinReader) Len() int {
	return len(r.data) - r.pos
}

// ReadU64LE reads a little-endian encoded uint64 value.
func (r *BinReader) ReadU64LE() uint64 {
	if r.Err == nil {
		if pos := r.pos; pos+8 <= len(r.data) {
			r.pos += 8
			return binary.LittleEndian.Uint64(r.data[pos:])
		}
		r.Err = io.ErrUnexpectedEOF
	}
	return 0
}

// ReadB reads a single byte.
func (r *BinReader) ReadB() byte {
	if r.Err == nil {
		if pos := r.pos; pos < len(r.data) {
			r.pos++
			return r.data[pos]
		}
		r.Err = io.ErrUnexpectedEOF
	}
	return 0
}

// ReadBytes fills the given slice from the buffer.
func (r *BinReader) ReadBytes(b []byte) {
	if r.Err != nil {
		return
	}
	n := copy(b, r.data[r.pos:])
	r.pos += n
	if n < len(b) {
		r.Err = io.ErrUnexpectedEOF
	}
}

// ReadU64Bytes reads a byte-slice prefixed with its little-endian uint64
// length. The length is checked against maxSize (MaxArraySize by default)
// and against the number of remaining bytes before allocation.
func (r *BinReader) ReadU64Bytes(maxSize ...int) []byte {
	n := r.ReadU64LE()
	if r.Err != nil {
		return nil
	}
	ms := MaxArraySize
	if len(maxSize) != 0 {
		ms = maxSize[0]
	}
	if n > uint64(ms) {
		r.Err = fmt.Errorf("byte-slice is too big (%d)", n)
		return nil
	}
	if n > uint64(r.Len()) {
		r.Err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	return b
}
