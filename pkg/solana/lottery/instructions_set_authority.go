package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

type SetAuthorityInstructionAccounts struct {
	Lottery          ed25519.PublicKey
	CurrentAuthority ed25519.PublicKey
	// NewAuthority must be an existing, funded account.
	NewAuthority ed25519.PublicKey
}

func NewSetAuthorityInstruction(program ed25519.PublicKey, accounts *SetAuthorityInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{byte(CommandSetAuthority)},
		solana.NewAccountMeta(accounts.Lottery, false),
		solana.NewReadonlyAccountMeta(accounts.CurrentAuthority, true),
		solana.NewReadonlyAccountMeta(accounts.NewAuthority, false),
	)
}

func SetAuthorityInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*SetAuthorityInstructionAccounts, error) {
	_, accounts, err := decompile(program, txn, idx, CommandSetAuthority, 3)
	if err != nil {
		return nil, err
	}

	return &SetAuthorityInstructionAccounts{
		Lottery:          accounts[0],
		CurrentAuthority: accounts[1],
		NewAuthority:     accounts[2],
	}, nil
}
