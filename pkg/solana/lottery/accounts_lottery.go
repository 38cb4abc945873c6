package lottery

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

const (
	// LotteryAccountSize is the allocated size of a lottery account,
	// including the program's struct padding.
	LotteryAccountSize = 184

	LotteryStoreOffset = 3 * 32
)

type LotteryAccount struct {
	Authority ed25519.PublicKey
	TokenMint ed25519.PublicKey
	TokenPool ed25519.PublicKey
	Store     ed25519.PublicKey

	// EndedAt is the clock time of an explicit end, zero otherwise.
	EndedAt uint64
	// EndAt is the unix deadline after which the lottery is over regardless
	// of State.
	EndAt uint64

	State LotteryState

	NftAmount    uint64
	TicketPrice  uint64
	TicketAmount uint64
	SoldAmount   uint64
}

func (obj *LotteryAccount) Unmarshal(data []byte) error {
	v, err := binary.DecodeUnchecked(Schemas.MustLookup(KindLotteryData), data)
	if err != nil {
		return errors.Wrap(err, "invalid lottery account")
	}

	r := v.Reader()
	obj.Authority = r.Address("authority")
	obj.TokenMint = r.Address("tokenMint")
	obj.TokenPool = r.Address("tokenPool")
	obj.Store = r.Address("lotteryStoreId")
	obj.EndedAt = r.Uint64("endedAt")
	obj.EndAt = r.Uint64("endLotteryAt")
	obj.State = LotteryState(r.Enum("state").Tag)
	obj.NftAmount = r.Uint64("nftAmount")
	obj.TicketPrice = r.Uint64("ticketPrice")
	obj.TicketAmount = r.Uint64("ticketAmount")
	obj.SoldAmount = r.Uint64("soldAmount")
	return r.Err()
}

// Marshal encodes the account as allocated by the program.
func (obj *LotteryAccount) Marshal() ([]byte, error) {
	data, err := binary.Encode(Schemas.MustLookup(KindLotteryData), binary.Value{
		"authority":      binary.AddressOrZero(obj.Authority),
		"tokenMint":      binary.AddressOrZero(obj.TokenMint),
		"tokenPool":      binary.AddressOrZero(obj.TokenPool),
		"lotteryStoreId": binary.AddressOrZero(obj.Store),
		"endedAt":        obj.EndedAt,
		"endLotteryAt":   obj.EndAt,
		"state":          uint8(obj.State),
		"nftAmount":      obj.NftAmount,
		"ticketPrice":    obj.TicketPrice,
		"ticketAmount":   obj.TicketAmount,
		"soldAmount":     obj.SoldAmount,
	})
	if err != nil {
		return nil, err
	}
	return binary.PadTo(data, LotteryAccountSize), nil
}

// Deadline returns EndAt as a time. The zero time means no deadline.
func (obj *LotteryAccount) Deadline() time.Time {
	if obj.EndAt == 0 {
		return time.Time{}
	}
	return time.Unix(int64(obj.EndAt), 0)
}

// EffectiveState is the state a reader should act on. A lottery whose
// deadline has passed is Ended even if nobody has submitted an end yet.
func (obj *LotteryAccount) EffectiveState(now time.Time) LotteryState {
	if obj.State == LotteryStateEnded {
		return LotteryStateEnded
	}
	if obj.EndAt != 0 && now.Unix() >= int64(obj.EndAt) {
		return LotteryStateEnded
	}
	return obj.State
}

// IsEnded reports whether the lottery is over, by explicit end or deadline.
func (obj *LotteryAccount) IsEnded(now time.Time) bool {
	return obj.EffectiveState(now) == LotteryStateEnded
}

// IsOpen reports whether tickets can currently be bought.
func (obj *LotteryAccount) IsOpen(now time.Time) bool {
	return obj.EffectiveState(now) == LotteryStateStarted && obj.RemainingTickets() > 0
}

func (obj *LotteryAccount) RemainingTickets() uint64 {
	if obj.SoldAmount >= obj.TicketAmount {
		return 0
	}
	return obj.TicketAmount - obj.SoldAmount
}

// TimeToEnd is the countdown to the deadline. It is zero once the lottery
// has ended or when no deadline is set.
func (obj *LotteryAccount) TimeToEnd(now time.Time) Countdown {
	if obj.EndAt == 0 || obj.State == LotteryStateEnded {
		return Countdown{}
	}
	return newCountdown(obj.Deadline().Sub(now))
}

func (obj *LotteryAccount) String() string {
	return fmt.Sprintf(
		"LotteryAccount{authority=%s,token_mint=%s,token_pool=%s,store=%s,ended_at=%d,end_at=%d,state=%s,nft_amount=%d,ticket_price=%d,ticket_amount=%d,sold_amount=%d}",
		binary.AddressString(obj.Authority),
		binary.AddressString(obj.TokenMint),
		binary.AddressString(obj.TokenPool),
		binary.AddressString(obj.Store),
		obj.EndedAt,
		obj.EndAt,
		obj.State,
		obj.NftAmount,
		obj.TicketPrice,
		obj.TicketAmount,
		obj.SoldAmount,
	)
}
