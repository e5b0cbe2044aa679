package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x42, 1, 2, 3, 4}
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Zero(t, buf.Len())
}

func TestFrameBackToBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{1}))
	require.NoError(t, WriteFrame(&buf, []byte{2, 3}))

	first, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, first)

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, second)
}

func TestWriteFrame_OversizedPayload(t *testing.T) {
	var buf bytes.Buffer

	// The largest payload a 16-bit length header can carry.
	require.NoError(t, WriteFrame(&buf, make([]byte, 65533)))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 65533)

	// One byte more must fail instead of wrapping the length header
	// and corrupting the stream.
	buf.Reset()
	err = WriteFrame(&buf, make([]byte, 65534))
	assert.Error(t, err)
	assert.Zero(t, buf.Len())

	err = WriteFrame(&buf, make([]byte, 70000))
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestReadFrame_ZeroLength(t *testing.T) {
	// A header declaring no payload is invalid.
	_, err := ReadFrame(bytes.NewReader([]byte{2, 0}))
	assert.Error(t, err)
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{10, 0, 1, 2}))
	assert.Error(t, err)
}

func TestReadFrame_EOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	assert.Equal(t, 0, store.Len())

	a := &Session{ID: 1}
	b := &Session{ID: 2}
	store.Add(a)
	store.Add(b)
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Same(t, a, got)

	seen := 0
	store.ForEach(func(*Session) { seen++ })
	assert.Equal(t, 2, seen)

	store.Remove(1)
	_, ok = store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	// Removing an absent ID is a no-op.
	store.Remove(99)
	assert.Equal(t, 1, store.Len())
}
