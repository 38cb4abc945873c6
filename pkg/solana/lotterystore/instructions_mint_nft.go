package lotterystore

import (
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

// MintNftInstructionArgs are shared by MintNft and UpdateMint.
type MintNftInstructionArgs struct {
	Name   string
	Symbol string
	Uri    string
	Bump   uint8
}

func (args *MintNftInstructionArgs) Validate() error {
	if len(args.Name) > MaxNameLength {
		return errors.Errorf("name exceeds %d bytes", MaxNameLength)
	}
	if len(args.Symbol) > MaxSymbolLength {
		return errors.Errorf("symbol exceeds %d bytes", MaxSymbolLength)
	}
	if len(args.Uri) > MaxUriLength {
		return errors.Errorf("uri exceeds %d bytes", MaxUriLength)
	}
	if !utf8.ValidString(args.Name) || !utf8.ValidString(args.Symbol) || !utf8.ValidString(args.Uri) {
		return errors.New("metadata must be valid utf-8")
	}
	return nil
}

func (args *MintNftInstructionArgs) encode(command Command) ([]byte, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}

	return binary.Encode(Schemas.MustLookup(KindMintNftArgs), binary.Value{
		"instruction": uint8(command),
		"name":        args.Name,
		"symbol":      args.Symbol,
		"uri":         args.Uri,
		"bump":        args.Bump,
	})
}

type MintNftInstructionAccounts struct {
	Creator ed25519.PublicKey
	// NftMeta is a fresh keypair account and must sign.
	NftMeta   ed25519.PublicKey
	Authority ed25519.PublicKey
	Store     ed25519.PublicKey
	Mint      ed25519.PublicKey
	TokenPool ed25519.PublicKey
}

// NewMintNftInstruction registers a minted NFT, held by TokenPool, with the
// store.
func NewMintNftInstruction(
	program ed25519.PublicKey,
	accounts *MintNftInstructionAccounts,
	args *MintNftInstructionArgs,
) (solana.Instruction, error) {
	data, err := args.encode(CommandMintNft)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Creator, true),
		solana.NewAccountMeta(accounts.NftMeta, true),
		solana.NewReadonlyAccountMeta(accounts.Authority, false),
		solana.NewAccountMeta(accounts.Store, false),
		solana.NewAccountMeta(accounts.Mint, false),
		solana.NewAccountMeta(accounts.TokenPool, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	), nil
}

func MintNftInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*MintNftInstructionArgs, *MintNftInstructionAccounts, error) {
	args, accounts, err := decompileMintArgs(program, txn, idx, CommandMintNft, 9)
	if err != nil {
		return nil, nil, err
	}

	return args, &MintNftInstructionAccounts{
		Creator:   accounts[0],
		NftMeta:   accounts[1],
		Authority: accounts[2],
		Store:     accounts[3],
		Mint:      accounts[4],
		TokenPool: accounts[5],
	}, nil
}

type UpdateMintInstructionAccounts struct {
	Payer   ed25519.PublicKey
	NftMeta ed25519.PublicKey
}

// NewUpdateMintInstruction rewrites the metadata of an already registered
// NFT, typically to point Uri at uploaded content.
func NewUpdateMintInstruction(
	program ed25519.PublicKey,
	accounts *UpdateMintInstructionAccounts,
	args *MintNftInstructionArgs,
) (solana.Instruction, error) {
	data, err := args.encode(CommandUpdateMint)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.NftMeta, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	), nil
}

func UpdateMintInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*MintNftInstructionArgs, *UpdateMintInstructionAccounts, error) {
	args, accounts, err := decompileMintArgs(program, txn, idx, CommandUpdateMint, 4)
	if err != nil {
		return nil, nil, err
	}

	return args, &UpdateMintInstructionAccounts{
		Payer:   accounts[0],
		NftMeta: accounts[1],
	}, nil
}

func decompileMintArgs(program ed25519.PublicKey, txn solana.Transaction, idx int, command Command, numAccounts int) (*MintNftInstructionArgs, []ed25519.PublicKey, error) {
	v, accounts, err := decompile(program, txn, idx, KindMintNftArgs, command, numAccounts)
	if err != nil {
		return nil, nil, err
	}

	r := v.Reader()
	args := &MintNftInstructionArgs{
		Name:   r.String("name"),
		Symbol: r.String("symbol"),
		Uri:    r.String("uri"),
		Bump:   r.Uint8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	return args, accounts, nil
}
