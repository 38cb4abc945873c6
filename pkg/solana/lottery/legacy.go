package lottery

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// decompile returns the raw data of the lottery instruction at idx and
// resolves its account indexes against the message.
func decompile(program ed25519.PublicKey, txn solana.Transaction, idx int, command Command, numAccounts int) ([]byte, []ed25519.PublicKey, error) {
	if idx < 0 || idx >= len(txn.Message.Instructions) {
		return nil, nil, errors.Errorf("instruction doesn't exist at %d", idx)
	}

	instruction := txn.Message.Instructions[idx]
	if !bytes.Equal(program, txn.Message.Accounts[instruction.ProgramIndex]) {
		return nil, nil, ErrInvalidProgram
	}
	if len(instruction.Data) == 0 || Command(instruction.Data[0]) != command {
		return nil, nil, ErrInvalidInstructionData
	}
	if command != CommandCreateLottery && len(instruction.Data) != 1 {
		return nil, nil, ErrInvalidInstructionData
	}
	if len(instruction.Accounts) != numAccounts {
		return nil, nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(instruction.Accounts), numAccounts)
	}

	accounts := make([]ed25519.PublicKey, len(instruction.Accounts))
	for i, index := range instruction.Accounts {
		accounts[i] = txn.Message.Accounts[index]
	}
	return instruction.Data, accounts, nil
}
