package binary

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	key := ed25519.PublicKey(bytes.Repeat([]byte{9}, ed25519.PublicKeySize))
	amount := uint64(42)

	b := make([]byte, 32+36+36+8+12+12+1)
	w := NewCursor(b)
	w.PutKey(key)
	w.PutOptionalKey(key)
	w.PutOptionalKey(nil)
	w.PutUint64(7)
	w.PutOptionalUint64(&amount)
	w.PutOptionalUint64(nil)
	w.PutUint8(3)
	require.Equal(t, len(b), w.Offset())

	// Absent options keep their full width, zeroed.
	assert.Equal(t, make([]byte, 36), b[68:104])

	r := NewCursor(b)
	assert.Equal(t, key, r.Key())
	assert.Equal(t, key, r.OptionalKey())
	assert.Nil(t, r.OptionalKey())
	assert.EqualValues(t, 7, r.Uint64())
	require.NotNil(t, r.OptionalUint64())
	assert.Nil(t, r.OptionalUint64())
	assert.EqualValues(t, 3, r.Uint8())
	assert.Equal(t, len(b), r.Offset())
}

func TestPadTo(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 0, 0}, PadTo([]byte{1, 2}, 4))

	b := []byte{1, 2, 3}
	assert.Equal(t, b, PadTo(b, 2))
	assert.Len(t, AddressOrZero(nil), ed25519.PublicKeySize)
	assert.Equal(t, ed25519.PublicKey(b), AddressOrZero(b))
}
