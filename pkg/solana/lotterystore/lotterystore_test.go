package lotterystore

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

func generateKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}

func TestGetStoreAuthorityAddress(t *testing.T) {
	keys := generateKeys(t, 2)

	first, err := GetStoreAuthorityAddress(keys[0], keys[1])
	require.NoError(t, err)
	second, err := GetStoreAuthorityAddress(keys[0], keys[1])
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, bump, err := solana.FindProgramAddressAndBump(keys[0], keys[1])
	require.NoError(t, err)
	assert.EqualValues(t, expected, first.Address)
	assert.Equal(t, bump, first.Bump)
}

func TestGetNftMetaSignerAddress(t *testing.T) {
	program := generateKeys(t, 1)[0]

	for _, nftMeta := range generateKeys(t, 32) {
		actual, err := GetNftMetaSignerAddress(program, nftMeta)
		require.NoError(t, err)

		signer, err := solana.CreateProgramAddress(program, nftMeta, []byte{actual.Bump})
		require.NoError(t, err)
		assert.EqualValues(t, actual.Address, signer)
	}
}

func TestCreateStore(t *testing.T) {
	keys := generateKeys(t, 4)
	program := keys[0]

	accounts := &CreateStoreInstructionAccounts{
		Creator:   keys[1],
		Store:     keys[2],
		Authority: keys[3],
	}
	instruction, err := NewCreateStoreInstruction(program, accounts, &CreateStoreInstructionArgs{Bump: 254})
	require.NoError(t, err)

	assert.EqualValues(t, program, instruction.Program)
	assert.Equal(t, []byte{0, 254}, instruction.Data)
	require.Len(t, instruction.Accounts, 5)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[2].IsSigner)
	assert.True(t, instruction.Accounts[2].IsWritable)
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[3].PublicKey)
	assert.EqualValues(t, system.ProgramKey[:], instruction.Accounts[4].PublicKey)

	txn := solana.NewTransaction(keys[1], instruction)
	args, decompiled, err := CreateStoreInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 254, args.Bump)
	assert.Equal(t, accounts, decompiled)

	_, _, err = CreateStoreInstructionFromLegacyInstruction(keys[3], txn, 0)
	assert.Equal(t, ErrInvalidProgram, err)
	_, _, err = MintNftInstructionFromLegacyInstruction(program, txn, 0)
	assert.Equal(t, ErrInvalidInstructionData, err)
}

func TestMintNft(t *testing.T) {
	keys := generateKeys(t, 7)
	program := keys[0]

	accounts := &MintNftInstructionAccounts{
		Creator:   keys[1],
		NftMeta:   keys[2],
		Authority: keys[3],
		Store:     keys[4],
		Mint:      keys[5],
		TokenPool: keys[6],
	}
	args := &MintNftInstructionArgs{Name: "Ape", Symbol: "APE", Uri: "https://arweave.net/x", Bump: 7}

	instruction, err := NewMintNftInstruction(program, accounts, args)
	require.NoError(t, err)

	expected := []byte{1}
	expected = append(expected, 3, 0, 0, 0)
	expected = append(expected, "Ape"...)
	expected = append(expected, 3, 0, 0, 0)
	expected = append(expected, "APE"...)
	expected = append(expected, 21, 0, 0, 0)
	expected = append(expected, "https://arweave.net/x"...)
	expected = append(expected, 7)
	assert.Equal(t, expected, instruction.Data)

	require.Len(t, instruction.Accounts, 9)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)
	for _, i := range []int{3, 4, 5} {
		assert.True(t, instruction.Accounts[i].IsWritable)
		assert.False(t, instruction.Accounts[i].IsSigner)
	}
	assert.EqualValues(t, token.ProgramKey, instruction.Accounts[6].PublicKey)

	txn := solana.NewTransaction(keys[1], instruction)
	decodedArgs, decodedAccounts, err := MintNftInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.Equal(t, args, decodedArgs)
	assert.Equal(t, accounts, decodedAccounts)
}

func TestUpdateMint(t *testing.T) {
	keys := generateKeys(t, 3)
	program := keys[0]

	args := &MintNftInstructionArgs{Name: "Ape", Symbol: "APE", Uri: "https://arweave.net/y", Bump: 7}
	instruction, err := NewUpdateMintInstruction(program, &UpdateMintInstructionAccounts{Payer: keys[1], NftMeta: keys[2]}, args)
	require.NoError(t, err)

	assert.EqualValues(t, CommandUpdateMint, instruction.Data[0])
	require.Len(t, instruction.Accounts, 4)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	txn := solana.NewTransaction(keys[1], instruction)
	decoded, accounts, err := UpdateMintInstructionFromLegacyInstruction(program, txn, 0)
	require.NoError(t, err)
	assert.Equal(t, args, decoded)
	assert.EqualValues(t, keys[2], accounts.NftMeta)
}

func TestMintNftArgs_Validate(t *testing.T) {
	for _, args := range []*MintNftInstructionArgs{
		{Name: strings.Repeat("n", MaxNameLength+1)},
		{Symbol: strings.Repeat("s", MaxSymbolLength+1)},
		{Uri: strings.Repeat("u", MaxUriLength+1)},
		{Name: "\xff"},
	} {
		assert.Error(t, args.Validate())

		_, err := NewMintNftInstruction(make([]byte, 32), &MintNftInstructionAccounts{}, args)
		assert.Error(t, err)
	}

	assert.NoError(t, (&MintNftInstructionArgs{
		Name:   strings.Repeat("n", MaxNameLength),
		Symbol: strings.Repeat("s", MaxSymbolLength),
		Uri:    strings.Repeat("u", MaxUriLength),
	}).Validate())
}

func TestStoreAccount_Unmarshal(t *testing.T) {
	keys := generateKeys(t, 2)

	data, err := binary.Encode(Schemas.MustLookup(KindStoreData), binary.Value{
		"owner":     keys[0],
		"authority": keys[1],
		"nftAmount": uint64(12),
		"bump":      uint8(250),
	})
	require.NoError(t, err)
	assert.Len(t, data, 73)

	// Allocated accounts carry trailing padding.
	padded := make([]byte, StoreAccountSize)
	copy(padded, data)

	var account StoreAccount
	require.NoError(t, account.Unmarshal(padded))
	assert.EqualValues(t, keys[0], account.Owner)
	assert.EqualValues(t, keys[1], account.Authority)
	assert.EqualValues(t, 12, account.NftAmount)
	assert.EqualValues(t, 250, account.Bump)

	assert.ErrorIs(t, account.Unmarshal(data[:40]), binary.ErrBufferTooShort)
}

func TestNftMetaAccount_Unmarshal(t *testing.T) {
	keys := generateKeys(t, 4)

	pad := func(s string, n int) string {
		return s + strings.Repeat("\x00", n-len(s))
	}

	data, err := binary.Encode(Schemas.MustLookup(KindNftMeta), binary.Value{
		"storeId":   keys[0],
		"nftNumber": uint64(3),
		"name":      pad("Ape", MaxNameLength),
		"symbol":    pad("APE", MaxSymbolLength),
		"uri":       pad("https://arweave.net/x", MaxUriLength),
		"mint":      keys[1],
		"tokenPool": keys[2],
		"authority": keys[3],
		"existNft":  uint8(1),
		"bump":      uint8(9),
	})
	require.NoError(t, err)
	assert.Len(t, data, NftMetaAccountSize)

	var account NftMetaAccount
	require.NoError(t, account.Unmarshal(data))
	assert.EqualValues(t, keys[0], account.Store)
	assert.EqualValues(t, 3, account.NftNumber)
	assert.Equal(t, "Ape", account.Name)
	assert.Equal(t, "APE", account.Symbol)
	assert.Equal(t, "https://arweave.net/x", account.Uri)
	assert.EqualValues(t, keys[1], account.Mint)
	assert.EqualValues(t, keys[2], account.TokenPool)
	assert.EqualValues(t, keys[3], account.Authority)
	assert.True(t, account.Exists)
	assert.EqualValues(t, 9, account.Bump)
}

func TestAccounts_Marshal(t *testing.T) {
	keys := generateKeys(t, 5)

	store := &StoreAccount{Owner: keys[0], Authority: keys[1], NftAmount: 7, Bump: 254}
	data, err := store.Marshal()
	require.NoError(t, err)
	require.Len(t, data, StoreAccountSize)

	var decodedStore StoreAccount
	require.NoError(t, decodedStore.Unmarshal(data))
	assert.Equal(t, store, &decodedStore)

	meta := &NftMetaAccount{
		Store:     keys[0],
		NftNumber: 4,
		Name:      "Ape",
		Symbol:    "APE",
		Uri:       "https://arweave.net/abc",
		Mint:      keys[2],
		TokenPool: keys[3],
		Authority: keys[4],
		Exists:    true,
		Bump:      1,
	}
	data, err = meta.Marshal()
	require.NoError(t, err)
	require.Len(t, data, NftMetaAccountSize)
	assert.EqualValues(t, keys[0], data[NftMetaStoreOffset:NftMetaStoreOffset+32])

	var decodedMeta NftMetaAccount
	require.NoError(t, decodedMeta.Unmarshal(data))
	assert.Equal(t, meta, &decodedMeta)
}
