package lottery

import (
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

const (
	// TicketAccountSize is the allocated size of a ticket account, including
	// the program's struct padding.
	TicketAccountSize = 80

	TicketOwnerOffset   = 0
	TicketLotteryOffset = 32
)

type TicketAccount struct {
	Owner   ed25519.PublicKey
	Lottery ed25519.PublicKey
	State   TicketState

	// WonNftNumber is the store NFT number won by this ticket, zero when the
	// ticket did not win.
	WonNftNumber uint64
}

func (obj *TicketAccount) Unmarshal(data []byte) error {
	v, err := binary.DecodeUnchecked(Schemas.MustLookup(KindTicket), data)
	if err != nil {
		return errors.Wrap(err, "invalid ticket account")
	}

	r := v.Reader()
	obj.Owner = r.Address("owner")
	obj.Lottery = r.Address("lotteryId")
	obj.State = TicketState(r.Enum("state").Tag)
	obj.WonNftNumber = r.Uint64("wonNftNumber")
	return r.Err()
}

func (obj *TicketAccount) Marshal() ([]byte, error) {
	data, err := binary.Encode(Schemas.MustLookup(KindTicket), binary.Value{
		"owner":        binary.AddressOrZero(obj.Owner),
		"lotteryId":    binary.AddressOrZero(obj.Lottery),
		"state":        uint8(obj.State),
		"wonNftNumber": obj.WonNftNumber,
	})
	if err != nil {
		return nil, err
	}
	return binary.PadTo(data, TicketAccountSize), nil
}

// CanClaimNft reports whether the ticket holds an unclaimed prize.
func (obj *TicketAccount) CanClaimNft() bool {
	return obj.State == TicketStateWon
}

// CanClaimToken reports whether the ticket price can be reclaimed.
func (obj *TicketAccount) CanClaimToken() bool {
	return obj.State == TicketStateNotWon
}

func (obj *TicketAccount) String() string {
	return fmt.Sprintf(
		"TicketAccount{owner=%s,lottery=%s,state=%s,won_nft_number=%d}",
		binary.AddressString(obj.Owner),
		binary.AddressString(obj.Lottery),
		obj.State,
		obj.WonNftNumber,
	)
}
