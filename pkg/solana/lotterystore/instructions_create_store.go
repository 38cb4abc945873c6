package lotterystore

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
)

type CreateStoreInstructionArgs struct {
	Bump uint8
}

type CreateStoreInstructionAccounts struct {
	Creator   ed25519.PublicKey
	Store     ed25519.PublicKey
	Authority ed25519.PublicKey
}

// NewCreateStoreInstruction initializes a store. The store is a fresh
// keypair account and must sign alongside the creator.
func NewCreateStoreInstruction(
	program ed25519.PublicKey,
	accounts *CreateStoreInstructionAccounts,
	args *CreateStoreInstructionArgs,
) (solana.Instruction, error) {
	data, err := binary.Encode(Schemas.MustLookup(KindCreateStoreArgs), binary.Value{
		"instruction": uint8(CommandCreateStore),
		"bump":        args.Bump,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Creator, true),
		solana.NewAccountMeta(accounts.Store, true),
		solana.NewAccountMeta(accounts.Authority, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	), nil
}

func CreateStoreInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*CreateStoreInstructionArgs, *CreateStoreInstructionAccounts, error) {
	v, accounts, err := decompile(program, txn, idx, KindCreateStoreArgs, CommandCreateStore, 5)
	if err != nil {
		return nil, nil, err
	}

	r := v.Reader()
	args := &CreateStoreInstructionArgs{Bump: r.Uint8("bump")}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}

	return args, &CreateStoreInstructionAccounts{
		Creator:   accounts[0],
		Store:     accounts[1],
		Authority: accounts[2],
	}, nil
}
