// Package binary implements the fixed little-endian record layouts used by
// the store and lottery programs, along with low level put/get helpers.
package binary

import (
	"fmt"

	"github.com/pkg/errors"
)

// Type is a primitive field type.
type Type uint8

const (
	TypeU8 Type = iota
	TypeU32
	TypeU64
	// TypeString is a u32 length prefix followed by raw UTF-8 bytes.
	TypeString
	// TypeAddress is 32 raw bytes, held in memory as a base58 string.
	TypeAddress
	// TypeEnum is a single byte tag into Field.Variants.
	TypeEnum
)

func (t Type) String() string {
	switch t {
	case TypeU8:
		return "u8"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeString:
		return "string"
	case TypeAddress:
		return "address"
	case TypeEnum:
		return "enum"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// width is the encoded size of fixed width types. Strings report their
// length prefix only.
func (t Type) width() int {
	switch t {
	case TypeU8, TypeEnum:
		return 1
	case TypeU32, TypeString:
		return 4
	case TypeU64:
		return 8
	case TypeAddress:
		return addressSize
	}
	return 0
}

// Field is a single named, typed entry in a Schema.
type Field struct {
	Name string
	Type Type

	// Variants names the enum tags in order. Only used by TypeEnum.
	Variants []string
}

// U8 declares a u8 field.
func U8(name string) Field { return Field{Name: name, Type: TypeU8} }

// U32 declares a little-endian u32 field.
func U32(name string) Field { return Field{Name: name, Type: TypeU32} }

// U64 declares a little-endian u64 field.
func U64(name string) Field { return Field{Name: name, Type: TypeU64} }

// String declares a u32 length prefixed string field.
func String(name string) Field { return Field{Name: name, Type: TypeString} }

// Address declares a 32 byte address field.
func Address(name string) Field { return Field{Name: name, Type: TypeAddress} }

// EnumOf declares a one byte enum field with the provided variant names.
func EnumOf(name string, variants ...string) Field {
	return Field{Name: name, Type: TypeEnum, Variants: variants}
}

// Schema is the ordered field layout of one record kind. Field order must
// match the program's compiled layout exactly.
type Schema struct {
	Kind   string
	Fields []Field
}

// NewSchema returns a schema for kind with the provided fields.
func NewSchema(kind string, fields ...Field) Schema {
	return Schema{Kind: kind, Fields: fields}
}

// Size returns the encoded size of the schema. ok is false when the schema
// contains variable length fields, in which case size is the minimum.
func (s Schema) Size() (size int, ok bool) {
	ok = true
	for _, f := range s.Fields {
		size += f.Type.width()
		if f.Type == TypeString {
			ok = false
		}
	}
	return size, ok
}

func (s Schema) validate() error {
	if s.Kind == "" {
		return errors.New("schema kind is empty")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.Errorf("%s: field name is empty", s.Kind)
		}
		if _, ok := seen[f.Name]; ok {
			return errors.Errorf("%s: duplicate field %q", s.Kind, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type > TypeEnum {
			return errors.Errorf("%s.%s: unknown type %s", s.Kind, f.Name, f.Type)
		}
		if f.Type == TypeEnum && len(f.Variants) == 0 {
			return errors.Errorf("%s.%s: enum without variants", s.Kind, f.Name)
		}
		if len(f.Variants) > 256 {
			return errors.Errorf("%s.%s: too many variants", s.Kind, f.Name)
		}
	}
	return nil
}

// Registry maps record kinds to their schemas. It is populated once at
// construction and never mutated, so it is safe for concurrent use.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry validates and registers the provided schemas.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		if err := s.validate(); err != nil {
			return nil, errors.Wrap(err, "invalid schema")
		}
		if _, ok := r.schemas[s.Kind]; ok {
			return nil, errors.Errorf("duplicate schema kind %q", s.Kind)
		}
		r.schemas[s.Kind] = s
	}
	return r, nil
}

// MustNewRegistry is NewRegistry that panics on an invalid schema set. It is
// intended for package level registries.
func MustNewRegistry(schemas ...Schema) *Registry {
	r, err := NewRegistry(schemas...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the schema registered for kind.
func (r *Registry) Lookup(kind string) (Schema, bool) {
	s, ok := r.schemas[kind]
	return s, ok
}

// MustLookup returns the schema registered for kind, panicking if absent.
func (r *Registry) MustLookup(kind string) Schema {
	s, ok := r.Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("schema %q not registered", kind))
	}
	return s
}
