package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/binary"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

type CreateLotteryInstructionArgs struct {
	// EndAt is the unix deadline of the lottery.
	EndAt        uint64
	TicketPrice  uint64
	TicketAmount uint32
	NftAmount    uint32
}

func (args *CreateLotteryInstructionArgs) encode() ([]byte, error) {
	return binary.Encode(Schemas.MustLookup(KindCreateLotteryArgs), binary.Value{
		"instruction":  uint8(CommandCreateLottery),
		"endLotteryAt": args.EndAt,
		"ticketPrice":  args.TicketPrice,
		"ticketAmount": args.TicketAmount,
		"nftAmount":    args.NftAmount,
	})
}

type CreateLotteryInstructionAccounts struct {
	Creator ed25519.PublicKey
	Store   ed25519.PublicKey
	// TokenMint is the mint tickets are paid in.
	TokenMint ed25519.PublicKey
	// TokenPool is a fresh keypair token account owned by the lottery.
	TokenPool ed25519.PublicKey
}

// NewCreateLotteryInstruction creates the lottery for accounts.Store. The
// lottery address is derived from the store and doubles as the authority
// slot.
func NewCreateLotteryInstruction(
	program ed25519.PublicKey,
	accounts *CreateLotteryInstructionAccounts,
	args *CreateLotteryInstructionArgs,
) (solana.Instruction, error) {
	data, err := args.encode()
	if err != nil {
		return solana.Instruction{}, err
	}

	lottery, err := GetLotteryAddress(program, accounts.Store)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Creator, true),
		solana.NewAccountMeta(lottery.Address, false),
		solana.NewAccountMeta(accounts.Store, false),
		solana.NewAccountMeta(accounts.TokenMint, false),
		solana.NewAccountMeta(accounts.TokenPool, true),
		solana.NewAccountMeta(lottery.Address, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	), nil
}

func CreateLotteryInstructionFromLegacyInstruction(program ed25519.PublicKey, txn solana.Transaction, idx int) (*CreateLotteryInstructionArgs, *CreateLotteryInstructionAccounts, error) {
	v, accounts, err := decompile(program, txn, idx, CommandCreateLottery, 9)
	if err != nil {
		return nil, nil, err
	}

	decoded, err := binary.DecodeUnchecked(Schemas.MustLookup(KindCreateLotteryArgs), v)
	if err != nil {
		return nil, nil, err
	}

	r := decoded.Reader()
	args := &CreateLotteryInstructionArgs{
		EndAt:        r.Uint64("endLotteryAt"),
		TicketPrice:  r.Uint64("ticketPrice"),
		TicketAmount: r.Uint32("ticketAmount"),
		NftAmount:    r.Uint32("nftAmount"),
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}

	return args, &CreateLotteryInstructionAccounts{
		Creator:   accounts[0],
		Store:     accounts[2],
		TokenMint: accounts[3],
		TokenPool: accounts[4],
	}, nil
}
