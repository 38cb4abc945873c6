package action

import (
	"crypto/ed25519"
	"fmt"

	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/submission"
)

// ProgramError annotates a rejected submission with the lottery program's
// error code. It matches the code with errors.Is and unwraps to the
// *submission.RemoteRejectedError.
type ProgramError struct {
	Code lottery.ErrorCode
	Err  error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Code.Error())
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

func (e *ProgramError) Is(target error) bool {
	code, ok := target.(lottery.ErrorCode)
	return ok && code == e.Code
}

// explain wraps a rejection raised by the lottery program in a ProgramError.
// Other errors are returned as is.
func explain(program ed25519.PublicKey, b *submission.Builder, err error) error {
	txErr, ok := submission.TransactionError(err)
	if !ok {
		return err
	}

	unit, buildErr := b.Build()
	if buildErr != nil {
		return err
	}

	code, ok := lottery.ErrorCodeFromTransactionError(program, unit.Transaction(), txErr)
	if !ok {
		return err
	}
	return &ProgramError{Code: code, Err: err}
}
