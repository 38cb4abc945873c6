package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// optionTagSize is the width of the tag in front of a COption value.
const optionTagSize = 4

// Cursor walks the fixed little endian layout used by native program state.
// Unlike Encode it never validates: callers size the buffer up front.
type Cursor struct {
	buf    []byte
	offset int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.offset
}

func (c *Cursor) next(n int) []byte {
	b := c.buf[c.offset : c.offset+n]
	c.offset += n
	return b
}

func (c *Cursor) PutKey(key ed25519.PublicKey) {
	copy(c.next(ed25519.PublicKeySize), key)
}

func (c *Cursor) Key() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), c.next(ed25519.PublicKeySize)...)
}

// PutOptionalKey writes an absent option when key is empty.
func (c *Cursor) PutOptionalKey(key ed25519.PublicKey) {
	c.putTag(len(key) > 0)
	c.PutKey(key)
}

func (c *Cursor) OptionalKey() ed25519.PublicKey {
	if !c.tag() {
		c.next(ed25519.PublicKeySize)
		return nil
	}
	return c.Key()
}

func (c *Cursor) PutUint8(v uint8) {
	c.next(1)[0] = v
}

func (c *Cursor) Uint8() uint8 {
	return c.next(1)[0]
}

func (c *Cursor) PutUint64(v uint64) {
	binary.LittleEndian.PutUint64(c.next(8), v)
}

func (c *Cursor) Uint64() uint64 {
	return binary.LittleEndian.Uint64(c.next(8))
}

func (c *Cursor) PutOptionalUint64(v *uint64) {
	c.putTag(v != nil)
	if v == nil {
		c.next(8)
		return
	}
	c.PutUint64(*v)
}

func (c *Cursor) OptionalUint64() *uint64 {
	if !c.tag() {
		c.next(8)
		return nil
	}
	v := c.Uint64()
	return &v
}

func (c *Cursor) putTag(set bool) {
	var v uint32
	if set {
		v = 1
	}
	binary.LittleEndian.PutUint32(c.next(optionTagSize), v)
}

func (c *Cursor) tag() bool {
	return binary.LittleEndian.Uint32(c.next(optionTagSize)) == 1
}

// AddressOrZero returns pub, or the all zero address when pub is unset.
func AddressOrZero(pub ed25519.PublicKey) ed25519.PublicKey {
	if len(pub) == 0 {
		return make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	return pub
}

// PadTo zero extends b to size bytes. b is returned unchanged when it is
// already at least size bytes.
func PadTo(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded, b)
	return padded
}
