// Package wire implements the framed binary protocol described in
// spec.md §4.5-§4.6: a fixed two-byte-length-plus-one-byte-id header
// followed by a positionally encoded body, and the full server<->client
// message catalog from spec.md §6.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"pigwarserver/internal/apperr"
)

// MaxBodySize is the largest body the codec will accept; anything
// larger is a protocol violation (spec.md §4.4).
const MaxBodySize = 8 * 1024

// HeaderSize is the fixed u16-length + u8-id header preceding every body.
const HeaderSize = 3

// Writer accumulates a message body field by field, little-endian,
// matching the positional encoding spec.md §4.5 documents.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty body writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) U8(v uint8)   { w.buf.WriteByte(v) }
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// U128 writes an unsigned 128-bit little-endian integer. The protocol
// reserves the width for clients that may someday want wider timestamps;
// every value the server actually emits fits in the low 64 bits, so the
// high word is always zero.
func (w *Writer) U128(v uint64) {
	w.U64(v)
	w.U64(0)
}

// I128 writes a signed 128-bit little-endian integer. Negative sentinel
// values (RoomTimerUpdate's deadline_ms = -1 to clear a client's timer)
// sign-extend into the high word.
func (w *Writer) I128(v int64) {
	w.U64(uint64(v))
	if v < 0 {
		w.U64(math.MaxUint64)
	} else {
		w.U64(0)
	}
}

// String writes an i32 length prefix followed by the UTF-8 bytes.
func (w *Writer) String(s string) {
	w.I32(int32(len(s)))
	w.buf.WriteString(s)
}

// Bytes returns the accumulated body.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteVec writes a u32 count followed by count encoded elements.
func WriteVec[T any](w *Writer, items []T, encode func(*Writer, T)) {
	w.U32(uint32(len(items)))
	for _, item := range items {
		encode(w, item)
	}
}

// Reader consumes a message body field by field. Every method returns an
// error wrapping apperr.ErrProtocol on truncation or malformed data.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps a decoded body for field-by-field reading.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("%w: need %d bytes, have %d", apperr.ErrProtocol, n, len(r.data)-r.pos)
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// U128 reads a 128-bit little-endian integer, truncated to the low 64
// bits (see Writer.U128).
func (r *Reader) U128() (uint64, error) {
	lo, err := r.U64()
	if err != nil {
		return 0, err
	}
	if _, err := r.U64(); err != nil {
		return 0, err
	}
	return lo, nil
}

// I128 mirrors U128 for the signed variant.
func (r *Reader) I128() (int64, error) {
	lo, err := r.I64()
	if err != nil {
		return 0, err
	}
	if _, err := r.U64(); err != nil {
		return 0, err
	}
	return lo, nil
}

// String reads an i32 length prefix followed by that many UTF-8 bytes.
// A non-positive length is rejected, per spec.md §4.5.
func (r *Reader) String() (string, error) {
	n, err := r.I32()
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: non-positive string length %d", apperr.ErrProtocol, n)
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	if !utf8.Valid(s) {
		return "", fmt.Errorf("%w: invalid UTF-8 string", apperr.ErrProtocol)
	}
	return string(s), nil
}

// Remaining reports how many unread bytes are left in the body. The
// message decoders do not call it; trailing bytes after a decoded body
// are ignored.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadVec reads a u32 count followed by count decoded elements.
func ReadVec[T any](r *Reader, decode func(*Reader) (T, error)) ([]T, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if int(n) > MaxBodySize {
		return nil, fmt.Errorf("%w: vector count %d implausible for an %d byte body cap", apperr.ErrProtocol, n, MaxBodySize)
	}
	out := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		item, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// ReadFrame reads one complete frame (header + body) from r, enforcing
// MaxBodySize. It returns io.EOF only when zero bytes were read before
// the connection closed; any partial read is a protocol error.
func ReadFrame(r io.Reader) (id uint8, body []byte, err error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: truncated header: %v", apperr.ErrProtocol, err)
	}
	size := binary.LittleEndian.Uint16(header[0:2])
	id = header[2]
	if int(size) > MaxBodySize {
		return 0, nil, fmt.Errorf("%w: body size %d exceeds %d byte cap", apperr.ErrProtocol, size, MaxBodySize)
	}
	body = make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("%w: truncated body: %v", apperr.ErrProtocol, err)
	}
	return id, body, nil
}

// WriteFrame writes one complete frame to w.
func WriteFrame(w io.Writer, id uint8, body []byte) error {
	if len(body) > MaxBodySize {
		return fmt.Errorf("%w: outbound body size %d exceeds %d byte cap", apperr.ErrProtocol, len(body), MaxBodySize)
	}
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(len(body)))
	header[2] = id
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
