// Package shortvec implements the compact length prefix used by Solana's
// wire format: little endian groups of 7 bits, the high bit set on every
// byte but the last, at most 3 bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

// EncodeLen writes the encoding of length to w. Lengths above
// math.MaxUint16 cannot be encoded.
func EncodeLen(w io.Writer, length int) (int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("len %d out of range [0, %d]", length, math.MaxUint16)
	}

	encoded := make([]byte, 0, maxEncodedLen)
	for {
		b := byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			encoded = append(encoded, b)
			break
		}
		encoded = append(encoded, b|0x80)
	}
	return w.Write(encoded)
}

// DecodeLen reads an encoded length from r.
func DecodeLen(r io.ByteReader) (int, error) {
	var length int
	for i := 0; i < maxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		length |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return length, nil
		}
	}
	return 0, errors.Errorf("encoded len exceeds %d bytes", maxEncodedLen)
}
