package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

type ClaimNftInstructionAccounts struct {
	Lottery ed25519.PublicKey
	Store   ed25519.PublicKey
	Claimer ed25519.PublicKey
	Ticket  ed25519.PublicKey
	NftMeta ed25519.PublicKey
	NftMint ed25519.PublicKey
	// NftPool is the store token account currently holding the NFT.
	NftPool ed25519.PublicKey
	// UserNft receives the NFT.
	UserNft ed25519.PublicKey
}

// NewClaimNftInstruction transfers a won NFT to the claimer. Claiming an
// already claimed ticket fails remotely with ErrorAlreadyClaimed.
func NewClaimNftInstruction(program ed25519.PublicKey, accounts *ClaimNftInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{byte(CommandClaimNft)},
		solana.NewAccountMeta(accounts.Lottery, false),
		solana.NewAccountMeta(accounts.Store, false),
		solana.NewReadonlyAccountMeta(accounts.Claimer, true),
		solana.NewAccountMeta(accounts.Ticket, false),
		solana.NewAccountMeta(accounts.NftMeta, false),
		solana.NewAccountMeta(accounts.NftMint, false),
		solana.NewAccountMeta(accounts.NftPool, false),
		solana.NewAccountMeta(accounts.UserNft, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)
}

func ClaimNftInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*ClaimNftInstructionAccounts, error) {
	_, accounts, err := decompile(program, txn, idx, CommandClaimNft, 9)
	if err != nil {
		return nil, err
	}

	return &ClaimNftInstructionAccounts{
		Lottery: accounts[0],
		Store:   accounts[1],
		Claimer: accounts[2],
		Ticket:  accounts[3],
		NftMeta: accounts[4],
		NftMint: accounts[5],
		NftPool: accounts[6],
		UserNft: accounts[7],
	}, nil
}

type ClaimTokenInstructionAccounts struct {
	Lottery   ed25519.PublicKey
	Claimer   ed25519.PublicKey
	Ticket    ed25519.PublicKey
	TokenPool ed25519.PublicKey
	// UserToken receives the refunded ticket price.
	UserToken ed25519.PublicKey
}

// NewClaimTokenInstruction refunds the ticket price of a losing ticket.
func NewClaimTokenInstruction(program ed25519.PublicKey, accounts *ClaimTokenInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{byte(CommandClaimToken)},
		solana.NewAccountMeta(accounts.Lottery, false),
		solana.NewReadonlyAccountMeta(accounts.Claimer, true),
		solana.NewAccountMeta(accounts.Ticket, false),
		solana.NewAccountMeta(accounts.TokenPool, false),
		solana.NewAccountMeta(accounts.UserToken, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
	)
}

func ClaimTokenInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*ClaimTokenInstructionAccounts, error) {
	_, accounts, err := decompile(program, txn, idx, CommandClaimToken, 6)
	if err != nil {
		return nil, err
	}

	return &ClaimTokenInstructionAccounts{
		Lottery:   accounts[0],
		Claimer:   accounts[1],
		Ticket:    accounts[2],
		TokenPool: accounts[3],
		UserToken: accounts[4],
	}, nil
}
