package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// Account is a local keypair. Throwaway accounts created to stage a
// submission (tickets, token pools, wrapped SOL holders) are Accounts too.
type Account struct {
	publicKey  *Key
	privateKey *Key
}

func NewAccountFromPrivateKey(privateKey *Key) (*Account, error) {
	if err := privateKey.Validate(); err != nil {
		return nil, err
	}
	if privateKey.IsPublic() {
		return nil, ErrNotAPrivateKey
	}

	publicKey, err := NewKeyFromBytes(privateKey.Public())
	if err != nil {
		return nil, errors.Wrap(err, "error creating public key from private key")
	}

	return &Account{
		publicKey:  publicKey,
		privateKey: privateKey,
	}, nil
}

func NewAccountFromPrivateKeyBytes(privateKey []byte) (*Account, error) {
	key, err := NewKeyFromBytes(privateKey)
	if err != nil {
		return nil, err
	}

	return NewAccountFromPrivateKey(key)
}

func NewAccountFromPrivateKeyString(privateKey string) (*Account, error) {
	key, err := NewKeyFromString(privateKey)
	if err != nil {
		return nil, err
	}

	return NewAccountFromPrivateKey(key)
}

func NewRandomAccount() (*Account, error) {
	key, err := NewRandomKey()
	if err != nil {
		return nil, err
	}

	account, err := NewAccountFromPrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "invalid account")
	}

	return account, nil
}

// LoadKeypairFile reads a keypair in the Solana CLI format: a JSON array of
// the 64 private key bytes.
func LoadKeypairFile(path string) (*Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading keypair file %s", path)
	}

	var values []int
	if err := json.Unmarshal(bytes.TrimSpace(raw), &values); err != nil {
		return nil, errors.Wrap(err, "keypair file must be a json byte array")
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("keypair file has %d bytes, expected %d", len(values), ed25519.PrivateKeySize)
	}

	privateKey := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("keypair byte %d out of range", i)
		}
		privateKey[i] = byte(v)
	}

	account, err := NewAccountFromPrivateKeyBytes(privateKey)
	if err != nil {
		return nil, err
	}

	// The trailing half of the file is the public key and must agree with
	// the one derived from the seed.
	if !bytes.Equal(account.PublicKey(), privateKey[32:]) {
		return nil, errors.New("keypair file public key does not match private key")
	}
	return account, nil
}

// WriteKeypairFile writes the account in the format read by LoadKeypairFile.
func (a *Account) WriteKeypairFile(path string) error {
	values := make([]int, ed25519.PrivateKeySize)
	for i, b := range a.privateKey.ToBytes() {
		values[i] = int(b)
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0600)
}

func (a *Account) PublicKey() ed25519.PublicKey {
	return a.publicKey.ToBytes()
}

func (a *Account) PrivateKey() ed25519.PrivateKey {
	return a.privateKey.ToBytes()
}

func (a *Account) String() string {
	return a.publicKey.ToBase58()
}

func (a *Account) Sign(message []byte) []byte {
	return ed25519.Sign(a.PrivateKey(), message)
}

func (a *Account) SignTransaction(_ context.Context, txn *solana.Transaction) error {
	return txn.Sign(a.PrivateKey())
}
