package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/system"
)

type LotteryStateInstructionAccounts struct {
	Payer ed25519.PublicKey
	Store ed25519.PublicKey
}

// NewStartLotteryInstruction moves a Created lottery to Started. The program
// rejects it once the deadline has passed.
func NewStartLotteryInstruction(program ed25519.PublicKey, accounts *LotteryStateInstructionAccounts) (solana.Instruction, error) {
	return newLotteryStateInstruction(program, CommandStartLottery, accounts)
}

// NewEndLotteryInstruction moves a Created or Started lottery to Ended.
func NewEndLotteryInstruction(program ed25519.PublicKey, accounts *LotteryStateInstructionAccounts) (solana.Instruction, error) {
	return newLotteryStateInstruction(program, CommandEndLottery, accounts)
}

func newLotteryStateInstruction(program ed25519.PublicKey, command Command, accounts *LotteryStateInstructionAccounts) (solana.Instruction, error) {
	lottery, err := GetLotteryAddress(program, accounts.Store)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		program,
		[]byte{byte(command)},
		solana.NewAccountMeta(accounts.Payer, false),
		solana.NewAccountMeta(lottery.Address, false),
		solana.NewReadonlyAccountMeta(system.ClockSysVar, false),
	), nil
}
