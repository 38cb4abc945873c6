package lottery

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// GetLotteryAddress derives the lottery account for a store. There is at most
// one lottery per store.
func GetLotteryAddress(program, store ed25519.PublicKey) (solana.DerivedAddress, error) {
	return solana.Derive(
		program,
		lotteryPrefix,
		program,
		store,
	)
}

// GetTokenAuthorityAddress derives the authority the program signs with when
// moving a bidder's payment into the pool.
func GetTokenAuthorityAddress(program, lottery, bidder ed25519.PublicKey) (solana.DerivedAddress, error) {
	return solana.Derive(
		program,
		lotteryPrefix,
		program,
		lottery,
		bidder,
	)
}

// GetTicketAuthorityAddress derives the authority the program signs with when
// allocating a ticket account.
func GetTicketAuthorityAddress(program, ticket ed25519.PublicKey) (solana.DerivedAddress, error) {
	return solana.Derive(
		program,
		lotteryPrefix,
		program,
		ticket,
	)
}
