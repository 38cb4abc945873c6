// Package lotterystore builds instructions for, and decodes accounts of, the
// NFT store program. A store owns a numbered set of single supply NFTs that a
// lottery later hands out to winning tickets.
package lotterystore

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

type Command uint8

const (
	CommandCreateStore Command = iota
	CommandMintNft
	CommandUpdateMint
)

func (c Command) String() string {
	switch c {
	case CommandCreateStore:
		return "create_store"
	case CommandMintNft:
		return "mint_nft"
	case CommandUpdateMint:
		return "update_mint"
	}
	return "unknown"
}

// Maximum metadata lengths. The program zero pads each string up to its
// maximum, so longer values overflow the account.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxUriLength    = 200
)
