package wallet

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidKeySize  = errors.New("key must be an ed25519 public or private key")
	ErrKeypairMismatch = errors.New("private key does not match its embedded public key")
	ErrNotAPrivateKey  = errors.New("key is not a private key")
)

// Key is an ed25519 public key or a 64 byte private key (seed followed by
// public key).
type Key struct {
	value []byte
}

func NewKeyFromBytes(value []byte) (*Key, error) {
	k := &Key{value: append([]byte(nil), value...)}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func NewKeyFromString(value string) (*Key, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding string as base58")
	}
	return NewKeyFromBytes(decoded)
}

func NewRandomKey() (*Key, error) {
	_, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating private key")
	}
	return &Key{value: private}, nil
}

func (k *Key) ToBytes() []byte {
	return k.value
}

func (k *Key) ToBase58() string {
	return base58.Encode(k.value)
}

func (k *Key) IsPublic() bool {
	return len(k.value) == ed25519.PublicKeySize
}

// Public returns the public half of a private key, or the key itself.
func (k *Key) Public() ed25519.PublicKey {
	if k.IsPublic() {
		return k.value
	}
	return ed25519.PrivateKey(k.value).Public().(ed25519.PublicKey)
}

// Validate checks the key size and, for private keys, that the embedded
// public key is the one derived from the seed. Keypair files that were
// edited by hand fail the second check.
func (k *Key) Validate() error {
	if k == nil {
		return errors.New("key is nil")
	}

	switch len(k.value) {
	case ed25519.PublicKeySize:
		return nil
	case ed25519.PrivateKeySize:
		derived := ed25519.NewKeyFromSeed(k.value[:ed25519.SeedSize])
		if !bytes.Equal(derived[ed25519.SeedSize:], k.value[ed25519.SeedSize:]) {
			return ErrKeypairMismatch
		}
		return nil
	}
	return ErrInvalidKeySize
}
