package packet

import (
	"encoding/binary"
	"math"
)

// Value tags. Every encoded value is preceded by one tag byte so the
// reader can detect a write/read order mismatch instead of misparsing.
// Wire layout is stable: changing these values breaks the protocol.
const (
	tagBool    byte = 0x01
	tagUint8   byte = 0x02
	tagUint16  byte = 0x03
	tagInt32   byte = 0x04
	tagUint32  byte = 0x05
	tagInt64   byte = 0x06
	tagFloat64 byte = 0x07
	tagString  byte = 0x08
	tagBytes   byte = 0x09
	tagUint64  byte = 0x0a
)

// Writer builds a packet payload. All multi-byte writes are little-endian.
// Values must be read back in the exact order and type they were written;
// the payload bytes double as the structural identity of whatever was
// written (two values are equal iff their packetized bytes are equal).
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.buf = append(w.buf, opcode)
	return w
}

func (w *Writer) WriteBool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	w.buf = append(w.buf, tagBool, b)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, tagUint8, v)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, tagUint16)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, tagInt32)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, tagUint32)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, tagInt64)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, tagUint64)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteFloat64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, tagFloat64)
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes a UTF-8 string with a uint16 length prefix.
func (w *Writer) WriteString(s string) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(len(s)))
	w.buf = append(w.buf, tagString)
	w.buf = append(w.buf, b[:]...)
	w.buf = append(w.buf, s...)
}

// WriteBytes writes a raw byte slice with a uint32 length prefix.
func (w *Writer) WriteBytes(v []byte) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(v)))
	w.buf = append(w.buf, tagBytes)
	w.buf = append(w.buf, b[:]...)
	w.buf = append(w.buf, v...)
}

// Bytes returns the accumulated payload. The slice aliases the writer's
// internal buffer; callers that retain it must not keep writing.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset clears the buffer for reuse, keeping the allocation.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}
