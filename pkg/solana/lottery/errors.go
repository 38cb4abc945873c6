package lottery

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// ErrorCode is a custom error returned by the lottery program.
type ErrorCode uint32

const (
	ErrorIncorrectOwner ErrorCode = iota
	ErrorNotRentExempt
	ErrorInvalidBidAccount
	ErrorInvalidLotteryAccount
	ErrorBalanceTooLow
	ErrorInvalidState
	ErrorBidTooSmall
	ErrorLotteryTransitionInvalid
	ErrorTicketTransitionInvalid
	ErrorDerivedKeyInvalid
	ErrorTokenTransferFailed
	ErrorTokenMintToFailed
	ErrorTokenBurnFailed
	ErrorInvalidAuthority
	ErrorAuthorityNotSigner
	ErrorNumericalOverflow
	ErrorBidderPotTokenAccountOwnerMismatch
	ErrorUninitialized
	ErrorMetadataInvalid
	ErrorBidderPotDoesNotExist
	ErrorBidAlreadyActive
	ErrorIncorrectMint
	ErrorMustReveal
	ErrorInvalidReveal
	ErrorBidderPotEmpty
	ErrorInvalidTokenProgram
	ErrorDelegateShouldBeNone
	ErrorCloseAuthorityShouldBeNone
	ErrorDataTypeMismatch
	ErrorBidMustBeMultipleOfTickSize
	ErrorGapBetweenBidsTooSmall
	ErrorInvalidGapTickSizePercentage
	ErrorAlreadyOverEndDate
	ErrorExceedTicketAmount
	ErrorInvalidTokenPool
	ErrorAlreadyEnded
	ErrorAlreadyClaimed
)

var errorMessages = map[ErrorCode]string{
	ErrorIncorrectOwner:                     "account does not have correct owner",
	ErrorNotRentExempt:                      "lamport balance below rent-exempt threshold",
	ErrorInvalidBidAccount:                  "bid account provided does not match the derived address",
	ErrorInvalidLotteryAccount:              "lottery account specified is invalid",
	ErrorBalanceTooLow:                      "balance too low to make bid",
	ErrorInvalidState:                       "lottery is not currently running",
	ErrorBidTooSmall:                        "bid is too small",
	ErrorLotteryTransitionInvalid:           "invalid lottery state transition",
	ErrorTicketTransitionInvalid:            "invalid ticket state transition",
	ErrorDerivedKeyInvalid:                  "failed to derive an account from seeds",
	ErrorTokenTransferFailed:                "token transfer failed",
	ErrorTokenMintToFailed:                  "token mint to failed",
	ErrorTokenBurnFailed:                    "token burn failed",
	ErrorInvalidAuthority:                   "invalid authority",
	ErrorAuthorityNotSigner:                 "authority not signer",
	ErrorNumericalOverflow:                  "numerical overflow",
	ErrorBidderPotTokenAccountOwnerMismatch: "bidder pot token account does not match",
	ErrorUninitialized:                      "uninitialized",
	ErrorMetadataInvalid:                    "metadata account is missing or invalid",
	ErrorBidderPotDoesNotExist:              "bidder pot is missing",
	ErrorBidAlreadyActive:                   "existing bid is already active",
	ErrorIncorrectMint:                      "incorrect mint specified, must match lottery",
	ErrorMustReveal:                         "must reveal price when ending a blinded lottery",
	ErrorInvalidReveal:                      "the revealing hash is invalid",
	ErrorBidderPotEmpty:                     "the pot for this bid is already empty",
	ErrorInvalidTokenProgram:                "not a valid token program",
	ErrorDelegateShouldBeNone:               "accept payment delegate should be none",
	ErrorCloseAuthorityShouldBeNone:         "accept payment close authority should be none",
	ErrorDataTypeMismatch:                   "data type mismatch",
	ErrorBidMustBeMultipleOfTickSize:        "bid must be multiple of tick size",
	ErrorGapBetweenBidsTooSmall:             "gap between bids too small",
	ErrorInvalidGapTickSizePercentage:       "gap tick size percentage must be between 0 and 100",
	ErrorAlreadyOverEndDate:                 "already over end time",
	ErrorExceedTicketAmount:                 "exceeds available ticket amount",
	ErrorInvalidTokenPool:                   "invalid token pool address",
	ErrorAlreadyEnded:                       "lottery already ended",
	ErrorAlreadyClaimed:                     "already claimed",
}

func (e ErrorCode) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown lottery error %d", uint32(e))
}

// ErrorCodeFromTransactionError extracts the lottery program error from a
// failed transaction. ok is false when the failing instruction did not target
// program or the failure was not a custom program error.
func ErrorCodeFromTransactionError(program ed25519.PublicKey, txn solana.Transaction, txErr *solana.TransactionError) (code ErrorCode, ok bool) {
	if txErr == nil {
		return 0, false
	}

	raw, index, ok := txErr.CustomErrorCode()
	if !ok || index < 0 || index >= len(txn.Message.Instructions) {
		return 0, false
	}

	instruction := txn.Message.Instructions[index]
	if !bytes.Equal(program, txn.Message.Accounts[instruction.ProgramIndex]) {
		return 0, false
	}
	return ErrorCode(raw), true
}
