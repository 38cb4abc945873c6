package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lotterynft/lottery-client/pkg/wallet"
)

// GenerateSolanaKeys returns n random addresses.
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewRandomAccount returns a random signing account.
func NewRandomAccount(t *testing.T) *wallet.Account {
	account, err := wallet.NewRandomAccount()
	require.NoError(t, err)

	return account
}
