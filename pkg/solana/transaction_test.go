package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Generated by the reference Rust SDK for the keypair and accounts below.
const referenceTransaction = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

func TestTransaction_Reference(t *testing.T) {
	keypair := ed25519.NewKeyFromSeed([]byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75})
	program := ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4, 2, 2, 2}
	to := ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx := NewTransaction(
		public(keypair),
		NewInstruction(program, []byte{1, 2, 3}, NewAccountMeta(public(keypair), true), NewAccountMeta(to, false)),
	)
	require.NoError(t, tx.Sign(keypair))
	assert.Equal(t, referenceTransaction, base64.StdEncoding.EncodeToString(tx.Marshal()))

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx, decoded)
}

func TestTransaction_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 3)

	tx := NewTransaction(
		public(keys[0]),
		NewInstruction(public(keys[1]), []byte{1, 2, 3}, NewAccountMeta(nil, false)),
		NewInstruction(public(keys[2]), nil, NewReadonlyAccountMeta(public(keys[0]), true)),
	)
	tx.SetBlockhash(Blockhash{9})
	require.NoError(t, tx.Sign(keys[0]))

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx.Marshal(), decoded.Marshal())
	assert.Equal(t, Blockhash{9}, decoded.Message.RecentBlockhash)
	assert.Len(t, decoded.Message.Accounts[1], ed25519.PublicKeySize)

	tx.Message.Instructions[0].ProgramIndex = 10
	assert.Error(t, decoded.Unmarshal(tx.Marshal()))
}

func TestTransaction_AccountOrder(t *testing.T) {
	keys := sortedKeys(t, 7)
	payer, program, program2 := keys[0], keys[5], keys[6]
	keys = keys[1:5]

	// keys[0] is requested readonly signer, then writable: writable signer.
	// keys[1] is requested readonly, then signer: readonly signer.
	// keys[2] is requested writable, then readonly: writable.
	// keys[3] is only requested readonly.
	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program2),
			[]byte{1},
			NewReadonlyAccountMeta(public(keys[0]), true),
			NewReadonlyAccountMeta(public(keys[1]), false),
			NewAccountMeta(public(keys[2]), false),
		),
		NewInstruction(
			public(program),
			[]byte{2},
			NewAccountMeta(public(keys[0]), false),
			NewReadonlyAccountMeta(public(keys[1]), true),
			NewReadonlyAccountMeta(public(keys[2]), false),
			NewReadonlyAccountMeta(public(keys[3]), false),
		),
	)

	expected := []ed25519.PublicKey{
		public(payer),
		public(keys[0]),
		public(keys[1]),
		public(keys[2]),
		public(keys[3]),
		public(program),
		public(program2),
	}
	assert.Equal(t, expected, tx.Message.Accounts)
	assert.Equal(t, Header{NumSignatures: 3, NumReadonlySigned: 1, NumReadOnly: 3}, tx.Message.Header)

	assert.EqualValues(t, 6, tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{1, 2, 3}, tx.Message.Instructions[0].Accounts)
	assert.EqualValues(t, 5, tx.Message.Instructions[1].ProgramIndex)
	assert.Equal(t, []byte{1, 2, 3, 4}, tx.Message.Instructions[1].Accounts)

	// Signing order does not matter
	require.NoError(t, tx.Sign(keys[1], payer, keys[0]))
	message := tx.Message.Marshal()
	for i, signer := range []ed25519.PrivateKey{payer, keys[0], keys[1]} {
		assert.True(t, ed25519.Verify(public(signer), message, tx.Signatures[i][:]))
	}

	assert.Error(t, tx.Sign(keys[3]))
	assert.Error(t, tx.Sign(generateKeys(t, 1)[0]))
}

func TestTransaction_SignerTracking(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, signer, program := keys[0], keys[1], keys[2]

	tx := NewTransaction(
		public(payer),
		NewInstruction(public(program), []byte{7}, NewAccountMeta(public(signer), true)),
	)

	assert.Equal(t, []ed25519.PublicKey{public(payer), public(signer)}, tx.RequiredSigners())
	assert.Len(t, tx.MissingSigners(), 2)

	tx.SetBlockhash(Blockhash{1})
	require.NoError(t, tx.Sign(payer))
	assert.Equal(t, []ed25519.PublicKey{public(signer)}, tx.MissingSigners())

	var sig Signature
	copy(sig[:], ed25519.Sign(signer, tx.Message.Marshal()))
	require.NoError(t, tx.AddSignature(public(signer), sig))
	assert.Empty(t, tx.MissingSigners())
	assert.Equal(t, tx.Signatures[0][:], tx.Signature())

	assert.Error(t, tx.AddSignature(public(program), sig))
	assert.Error(t, tx.AddSignature(public(payer), sig))

	// Keeping the blockhash keeps the signatures
	tx.SetBlockhash(Blockhash{1})
	assert.Empty(t, tx.MissingSigners())

	tx.SetBlockhash(Blockhash{2})
	assert.Len(t, tx.MissingSigners(), 2)
}

func TestTransaction_TooLarge(t *testing.T) {
	keys := generateKeys(t, 2)
	tx := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), make([]byte, MaxTransactionSize)))
	assert.Greater(t, len(tx.Marshal()), MaxTransactionSize)
}

func TestMessage_UnmarshalVersioned(t *testing.T) {
	var m Message
	assert.Error(t, m.Unmarshal([]byte{0x80, 1, 0, 0}))
	assert.Error(t, m.Unmarshal(nil))
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}

func generateKeys(t *testing.T, amount int) []ed25519.PrivateKey {
	keys := make([]ed25519.PrivateKey, amount)
	for i := range keys {
		_, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = priv
	}
	return keys
}

func sortedKeys(t *testing.T, amount int) []ed25519.PrivateKey {
	keys := generateKeys(t, amount)
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(public(keys[i]), public(keys[j])) < 0
	})
	return keys
}
