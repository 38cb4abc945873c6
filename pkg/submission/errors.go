package submission

import (
	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

var (
	// ErrEmptyUnit is returned when a unit without instructions is built.
	ErrEmptyUnit = errors.New("submission unit has no instructions")

	// ErrIncompleteSigners is returned, before any network call, when a
	// required signer of the unit has no matching wallet.
	ErrIncompleteSigners = errors.New("incomplete signers")

	// ErrNetworkTransient is returned once transient network failures have
	// exhausted the configured retries. The last cause is wrapped.
	ErrNetworkTransient = errors.New("transient network failure")

	// ErrExpired is returned when the unit's blockhash lapsed before
	// confirmation on every attempt.
	ErrExpired = errors.New("submission expired")

	// ErrRemoteRejected is the sentinel matched by RemoteRejectedError.
	ErrRemoteRejected = errors.New("submission rejected")
)

// RemoteRejectedError is returned when the network explicitly refused the
// unit, either at preflight or during execution.
type RemoteRejectedError struct {
	Signature solana.Signature
	Err       *solana.TransactionError
}

func (e *RemoteRejectedError) Error() string {
	if e.Err == nil {
		return ErrRemoteRejected.Error()
	}
	return ErrRemoteRejected.Error() + ": " + e.Err.Error()
}

func (e *RemoteRejectedError) Unwrap() error {
	return ErrRemoteRejected
}

// TransactionError returns the rejection reported by the node, if err is a
// RemoteRejectedError.
func TransactionError(err error) (*solana.TransactionError, bool) {
	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) || rejected.Err == nil {
		return nil, false
	}
	return rejected.Err, true
}
