// Package token builds and decodes the SPL token instructions used to mint
// NFTs and to hold ticket payments.
package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
)

// ProgramKey is the address of the SPL token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// NativeMint is the wrapped SOL mint.
//
// Current key: So11111111111111111111111111111111111111112
var NativeMint = ed25519.PublicKey{6, 155, 136, 87, 254, 171, 129, 132, 251, 104, 127, 99, 70, 24, 192, 53, 218, 196, 57, 220, 26, 235, 59, 85, 152, 160, 240, 0, 0, 0, 0, 1}

// Command is the first data byte of a token instruction.
type Command byte

// Only the commands built by this package are named. The gaps keep the
// program's numbering.
const (
	CommandInitializeMint    Command = 0
	CommandInitializeAccount Command = 1
	CommandSetAuthority      Command = 6
	CommandMintTo            Command = 7
	CommandCloseAccount      Command = 9

	CommandUnknown = Command(math.MaxUint8)
)

type AuthorityType byte

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountHolder
	AuthorityTypeCloseAccount
)

// GetCommand returns the command of the token instruction at index.
func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}
	return Command(i.Data[0]), nil
}

// decompile locates the instruction at index and checks that it is command
// with at least minAccounts accounts. Multisig variants carry extra signer
// accounts, so the count is a lower bound.
func decompile(m solana.Message, index int, command Command, minAccounts int) (solana.CompiledInstruction, []ed25519.PublicKey, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return i, nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || i.Data[0] != byte(command) {
		return i, nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) < minAccounts {
		return i, nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	accounts := make([]ed25519.PublicKey, len(i.Accounts))
	for n, idx := range i.Accounts {
		accounts[n] = m.Accounts[idx]
	}
	return i, accounts, nil
}

// InitializeMint initializes a mint created by the system program. A nil
// freezeAuthority leaves the mint without one.
//
// Accounts: [writable] mint, [] rent sysvar.
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	data := make([]byte, 1+1+32+1, 1+1+32+1+32)
	data[0] = byte(CommandInitializeMint)
	data[1] = decimals
	copy(data[2:], mintAuthority)
	if len(freezeAuthority) > 0 {
		data[34] = 1
		data = append(data, freezeAuthority...)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
	Decimals        byte
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, accounts, err := decompile(m, index, CommandInitializeMint, 2)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 35 && len(i.Data) != 67 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledInitializeMint{
		Mint:          accounts[0],
		MintAuthority: i.Data[2:34],
		Decimals:      i.Data[1],
	}
	if i.Data[34] == 1 && len(i.Data) == 67 {
		v.FreezeAuthority = i.Data[35:67]
	}
	return v, nil
}

// InitializeAccount initializes a token account created by the system
// program.
//
// Accounts: [writable, signer] account, [] mint, [] owner, [] rent sysvar.
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, true),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeAccount struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	i, accounts, err := decompile(m, index, CommandInitializeAccount, 4)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	if !bytes.Equal(system.RentSysVar, accounts[3]) {
		return nil, errors.New("invalid rent program")
	}

	return &DecompiledInitializeAccount{
		Account: accounts[0],
		Mint:    accounts[1],
		Owner:   accounts[2],
	}, nil
}

// SetAuthority replaces an authority of a mint or account. A nil
// newAuthority removes it, which is how NFT supply gets fixed at one.
//
// Accounts: [writable] mint or account, [signer] current authority.
func SetAuthority(account, currentAuthority, newAuthority ed25519.PublicKey, authorityType AuthorityType) solana.Instruction {
	data := []byte{byte(CommandSetAuthority), byte(authorityType), 0}
	if len(newAuthority) > 0 {
		data[2] = 1
		data = append(data, newAuthority...)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(currentAuthority, true),
	)
}

type DecompiledSetAuthority struct {
	Account          ed25519.PublicKey
	CurrentAuthority ed25519.PublicKey
	NewAuthority     ed25519.PublicKey
	Type             AuthorityType
}

func DecompileSetAuthority(m solana.Message, index int) (*DecompiledSetAuthority, error) {
	i, accounts, err := decompile(m, index, CommandSetAuthority, 2)
	if err != nil {
		return nil, err
	}

	switch {
	case len(i.Data) == 3 && i.Data[2] == 0:
	case len(i.Data) == 3+ed25519.PublicKeySize && i.Data[2] == 1:
	default:
		return nil, errors.Errorf("invalid data size: %d", len(i.Data))
	}

	v := &DecompiledSetAuthority{
		Account:          accounts[0],
		CurrentAuthority: accounts[1],
		Type:             AuthorityType(i.Data[1]),
	}
	if i.Data[2] == 1 {
		v.NewAuthority = i.Data[3:]
	}
	return v, nil
}

// MintTo mints amount tokens of mint into dest.
//
// Accounts: [writable] mint, [writable] destination, [signer] mint authority.
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, accounts, err := decompile(m, index, CommandMintTo, 3)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledMintTo{
		Mint:        accounts[0],
		Destination: accounts[1],
		Authority:   accounts[2],
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

// CloseAccount closes a token account and moves its lamports to dest.
// Closing a wrapped SOL account unwraps its balance.
//
// Accounts: [writable] account, [writable] destination, [signer] owner.
func CloseAccount(account, dest, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandCloseAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledCloseAccount struct {
	Account     ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
}

func DecompileCloseAccount(m solana.Message, index int) (*DecompiledCloseAccount, error) {
	i, accounts, err := decompile(m, index, CommandCloseAccount, 3)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}

	return &DecompiledCloseAccount{
		Account:     accounts[0],
		Destination: accounts[1],
		Owner:       accounts[2],
	}, nil
}
