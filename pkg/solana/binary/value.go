package binary

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ValueReader extracts typed fields from a decoded Value. The first failure
// is retained and every later read returns a zero value, so callers check
// Err once after reading all fields.
type ValueReader struct {
	v   Value
	err error
}

// Reader returns a ValueReader over v.
func (v Value) Reader() *ValueReader {
	return &ValueReader{v: v}
}

func (r *ValueReader) Uint8(name string) uint8 {
	n, _ := r.get(name, "u8").(uint8)
	return n
}

func (r *ValueReader) Uint32(name string) uint32 {
	n, _ := r.get(name, "u32").(uint32)
	return n
}

func (r *ValueReader) Uint64(name string) uint64 {
	n, _ := r.get(name, "u64").(uint64)
	return n
}

func (r *ValueReader) String(name string) string {
	s, _ := r.get(name, "string").(string)
	return s
}

func (r *ValueReader) Address(name string) ed25519.PublicKey {
	s, _ := r.get(name, "address").(string)
	if r.err != nil {
		return nil
	}

	b, err := base58.Decode(s)
	if err != nil || len(b) != addressSize {
		r.err = errors.Wrapf(ErrSchemaMismatch, "%s: invalid address %q", name, s)
		return nil
	}
	return b
}

func (r *ValueReader) Enum(name string) Enum {
	e, _ := r.get(name, "enum").(Enum)
	return e
}

// Err returns the first error encountered.
func (r *ValueReader) Err() error {
	return r.err
}

func (r *ValueReader) get(name, want string) interface{} {
	if r.err != nil {
		return nil
	}

	raw, ok := r.v[name]
	if !ok {
		r.err = errors.Wrapf(ErrSchemaMismatch, "%s: missing field", name)
		return nil
	}

	var typed bool
	switch want {
	case "u8":
		_, typed = raw.(uint8)
	case "u32":
		_, typed = raw.(uint32)
	case "u64":
		_, typed = raw.(uint64)
	case "string", "address":
		_, typed = raw.(string)
	case "enum":
		_, typed = raw.(Enum)
	}
	if !typed {
		r.err = errors.Wrapf(ErrSchemaMismatch, "%s: %T is not a %s", name, raw, want)
		return nil
	}
	return raw
}

// AddressString returns the in memory form of an address.
func AddressString(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}
