package lotterystore

import (
	"crypto/ed25519"

	"github.com/lotterynft/lottery-client/pkg/solana"
)

// GetStoreAuthorityAddress derives the store's authority. Its only seed is
// the store account itself.
func GetStoreAuthorityAddress(program, store ed25519.PublicKey) (solana.DerivedAddress, error) {
	return solana.Derive(program, store)
}

// GetNftMetaSignerAddress derives the signer the program allocates an NFT
// meta account with. Its only seed is the meta account, so the bump passed
// to MintNft must come from here for the seeds to be off curve.
func GetNftMetaSignerAddress(program, nftMeta ed25519.PublicKey) (solana.DerivedAddress, error) {
	return solana.Derive(program, nftMeta)
}
