// Package lottery builds instructions for, and decodes accounts of, the NFT
// lottery program.
//
// A lottery is bound to one store. Buying a ticket settles it immediately as
// won or not won; winners later claim an NFT from the store and losers claim
// back their ticket price.
package lottery

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
	CommandCreateLottery Command = iota
	CommandSetAuthority
	CommandStartLottery
	CommandGetTicket
	CommandEndLottery
	CommandClaimNft
	CommandClaimToken
)

func (c Command) String() string {
	switch c {
	case CommandCreateLottery:
		return "create_lottery"
	case CommandSetAuthority:
		return "set_authority"
	case CommandStartLottery:
		return "start_lottery"
	case CommandGetTicket:
		return "get_ticket"
	case CommandEndLottery:
		return "end_lottery"
	case CommandClaimNft:
		return "claim_nft"
	case CommandClaimToken:
		return "claim_token"
	}
	return "unknown"
}

var lotteryPrefix = []byte("lottery")
