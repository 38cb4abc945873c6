package binary

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"unicode/utf8"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const addressSize = ed25519.PublicKeySize

var (
	// ErrSchemaMismatch indicates a value does not satisfy a schema: a
	// declared field is absent or holds the wrong Go type, or a decoded
	// string is not valid UTF-8.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrBufferTooShort indicates decoding would read past the end of the
	// input.
	ErrBufferTooShort = errors.New("buffer too short")
)

// Value holds a record's fields keyed by field name.
//
// Field types map to Go types as follows:
//
//	u8      uint8
//	u32     uint32
//	u64     uint64
//	string  string
//	address string (base58)
//	enum    Enum
type Value map[string]interface{}

// Enum is a decoded enum tag. Tags outside the declared variants decode with
// Recognized false rather than failing.
type Enum struct {
	Tag        uint8
	Name       string
	Recognized bool
}

// EnumValue returns the Enum for tag within the field's variants.
func (f Field) EnumValue(tag uint8) Enum {
	if int(tag) < len(f.Variants) {
		return Enum{Tag: tag, Name: f.Variants[tag], Recognized: true}
	}
	return Enum{Tag: tag}
}

// Encode writes v's fields in schema order. Extra keys in v are ignored.
func Encode(s Schema, v Value) ([]byte, error) {
	size, _ := s.Size()
	b := bytes.NewBuffer(make([]byte, 0, size))

	var scratch [8]byte
	for _, f := range s.Fields {
		raw, ok := v[f.Name]
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "%s.%s: missing field", s.Kind, f.Name)
		}

		mismatch := func() error {
			return errors.Wrapf(ErrSchemaMismatch, "%s.%s: %T is not a %s", s.Kind, f.Name, raw, f.Type)
		}

		switch f.Type {
		case TypeU8:
			n, ok := raw.(uint8)
			if !ok {
				return nil, mismatch()
			}
			b.WriteByte(n)
		case TypeU32:
			n, ok := raw.(uint32)
			if !ok {
				return nil, mismatch()
			}
			binary.LittleEndian.PutUint32(scratch[:4], n)
			b.Write(scratch[:4])
		case TypeU64:
			n, ok := raw.(uint64)
			if !ok {
				return nil, mismatch()
			}
			binary.LittleEndian.PutUint64(scratch[:8], n)
			b.Write(scratch[:8])
		case TypeString:
			str, ok := raw.(string)
			if !ok {
				return nil, mismatch()
			}
			binary.LittleEndian.PutUint32(scratch[:4], uint32(len(str)))
			b.Write(scratch[:4])
			b.WriteString(str)
		case TypeAddress:
			addr, err := addressBytes(raw)
			if err != nil {
				return nil, errors.Wrapf(ErrSchemaMismatch, "%s.%s: %v", s.Kind, f.Name, err)
			}
			b.Write(addr)
		case TypeEnum:
			switch e := raw.(type) {
			case Enum:
				b.WriteByte(e.Tag)
			case uint8:
				b.WriteByte(e)
			default:
				return nil, mismatch()
			}
		default:
			return nil, errors.Wrapf(ErrSchemaMismatch, "%s.%s: unknown type %s", s.Kind, f.Name, f.Type)
		}
	}

	return b.Bytes(), nil
}

func addressBytes(raw interface{}) ([]byte, error) {
	switch a := raw.(type) {
	case string:
		decoded, err := base58.Decode(a)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 address")
		}
		if len(decoded) != addressSize {
			return nil, errors.Errorf("address is %d bytes", len(decoded))
		}
		return decoded, nil
	case ed25519.PublicKey:
		if len(a) != addressSize {
			return nil, errors.Errorf("address is %d bytes", len(a))
		}
		return a, nil
	}
	return nil, errors.Errorf("%T is not an address", raw)
}

// DecodeUnchecked reads s's fields from b in order. It does not require b to
// be fully consumed, and enum tags outside the declared variants are returned
// with Recognized false.
func DecodeUnchecked(s Schema, b []byte) (Value, error) {
	v, _, err := decode(s, b)
	return v, err
}

// DecodePrefix is DecodeUnchecked that also reports the number of bytes read.
func DecodePrefix(s Schema, b []byte) (Value, int, error) {
	return decode(s, b)
}

func decode(s Schema, b []byte) (Value, int, error) {
	v := make(Value, len(s.Fields))

	var offset int
	take := func(f Field, n int) ([]byte, error) {
		if n < 0 || len(b)-offset < n {
			return nil, errors.Wrapf(ErrBufferTooShort, "%s.%s: need %d bytes at offset %d, have %d", s.Kind, f.Name, n, offset, len(b)-offset)
		}
		out := b[offset : offset+n]
		offset += n
		return out, nil
	}

	for _, f := range s.Fields {
		switch f.Type {
		case TypeU8:
			raw, err := take(f, 1)
			if err != nil {
				return nil, offset, err
			}
			v[f.Name] = raw[0]
		case TypeU32:
			raw, err := take(f, 4)
			if err != nil {
				return nil, offset, err
			}
			v[f.Name] = binary.LittleEndian.Uint32(raw)
		case TypeU64:
			raw, err := take(f, 8)
			if err != nil {
				return nil, offset, err
			}
			v[f.Name] = binary.LittleEndian.Uint64(raw)
		case TypeString:
			raw, err := take(f, 4)
			if err != nil {
				return nil, offset, err
			}
			length := binary.LittleEndian.Uint32(raw)
			if uint64(length) > uint64(len(b)-offset) {
				return nil, offset, errors.Wrapf(ErrBufferTooShort, "%s.%s: string of %d bytes at offset %d, have %d", s.Kind, f.Name, length, offset, len(b)-offset)
			}
			raw, _ = take(f, int(length))
			if !utf8.Valid(raw) {
				return nil, offset, errors.Wrapf(ErrSchemaMismatch, "%s.%s: invalid utf-8", s.Kind, f.Name)
			}
			v[f.Name] = string(raw)
		case TypeAddress:
			raw, err := take(f, addressSize)
			if err != nil {
				return nil, offset, err
			}
			v[f.Name] = base58.Encode(raw)
		case TypeEnum:
			raw, err := take(f, 1)
			if err != nil {
				return nil, offset, err
			}
			v[f.Name] = f.EnumValue(raw[0])
		default:
			return nil, offset, errors.Errorf("%s.%s: unknown type %s", s.Kind, f.Name, f.Type)
		}
	}

	return v, offset, nil
}
