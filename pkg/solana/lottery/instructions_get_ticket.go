package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

type GetTicketInstructionAccounts struct {
	Lottery ed25519.PublicKey
	// Ticket is a fresh keypair account and must sign.
	Ticket ed25519.PublicKey
	Bidder ed25519.PublicKey
	// BidderToken pays the ticket price in the lottery's mint.
	BidderToken       ed25519.PublicKey
	TokenPool         ed25519.PublicKey
	TokenMint         ed25519.PublicKey
	TransferAuthority ed25519.PublicKey
}

// NewGetTicketInstruction buys one ticket. The program settles the ticket as
// won or not won within the same instruction.
func NewGetTicketInstruction(program ed25519.PublicKey, accounts *GetTicketInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		program,
		[]byte{byte(CommandGetTicket)},
		solana.NewAccountMeta(accounts.Lottery, false),
		solana.NewAccountMeta(accounts.Ticket, true),
		solana.NewReadonlyAccountMeta(accounts.Bidder, true),
		solana.NewAccountMeta(accounts.BidderToken, false),
		solana.NewAccountMeta(accounts.TokenPool, false),
		solana.NewAccountMeta(accounts.TokenMint, false),
		solana.NewReadonlyAccountMeta(accounts.TransferAuthority, true),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(system.ClockSysVar, false),
	)
}

func GetTicketInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*GetTicketInstructionAccounts, error) {
	_, accounts, err := decompile(program, txn, idx, CommandGetTicket, 11)
	if err != nil {
		return nil, err
	}

	return &GetTicketInstructionAccounts{
		Lottery:           accounts[0],
		Ticket:            accounts[1],
		Bidder:            accounts[2],
		BidderToken:       accounts[3],
		TokenPool:         accounts[4],
		TokenMint:         accounts[5],
		TransferAuthority: accounts[6],
	}, nil
}
