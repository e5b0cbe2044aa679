package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Decoding errors. Every mis-read fails loudly: the simulation must
// never apply a value from a corrupt or misaligned packet.
var (
	ErrBufferExhausted = errors.New("packet: buffer exhausted")
	ErrTypeMismatch    = errors.New("packet: value type mismatch")
)

// Reader consumes a packet payload written by Writer, in write order.
// Any mismatch between the declared read type and the written value is
// a decoding error, never a silent zero value.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// tag consumes one tag byte and checks it against the expected tag.
func (r *Reader) tag(want byte) error {
	if r.off >= len(r.data) {
		return fmt.Errorf("%w at offset %d", ErrBufferExhausted, r.off)
	}
	got := r.data[r.off]
	if got != want {
		return fmt.Errorf("%w at offset %d: wrote 0x%02x, read 0x%02x", ErrTypeMismatch, r.off, got, want)
	}
	r.off++
	return nil
}

// take consumes n payload bytes.
func (r *Reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferExhausted, n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	if err := r.tag(tagBool); err != nil {
		return false, err
	}
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.tag(tagUint8); err != nil {
		return 0, err
	}
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.tag(tagUint16); err != nil {
		return 0, err
	}
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	if err := r.tag(tagInt32); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.tag(tagUint32); err != nil {
		return 0, err
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	if err := r.tag(tagInt64); err != nil {
		return 0, err
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.tag(tagUint64); err != nil {
		return 0, err
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.tag(tagFloat64); err != nil {
		return 0, err
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (r *Reader) ReadString() (string, error) {
	if err := r.tag(tagString); err != nil {
		return "", err
	}
	lb, err := r.take(2)
	if err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint16(lb))
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes returns a copy of the written slice so the caller never
// aliases the packet buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	if err := r.tag(tagBytes); err != nil {
		return nil, err
	}
	lb, err := r.take(4)
	if err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(lb))
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
