package lotterystore

import (
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

// StoreAccountSize is the allocated size of a store account, including the
// program's struct padding.
const StoreAccountSize = 80

type StoreAccount struct {
	Owner     ed25519.PublicKey
	Authority ed25519.PublicKey
	NftAmount uint64
	Bump      uint8
}

func (obj *StoreAccount) Unmarshal(data []byte) error {
	v, err := binary.DecodeUnchecked(Schemas.MustLookup(KindStoreData), data)
	if err != nil {
		return errors.Wrap(err, "invalid store account")
	}

	r := v.Reader()
	obj.Owner = r.Address("owner")
	obj.Authority = r.Address("authority")
	obj.NftAmount = r.Uint64("nftAmount")
	obj.Bump = r.Uint8("bump")
	return r.Err()
}

func (obj *StoreAccount) Marshal() ([]byte, error) {
	data, err := binary.Encode(Schemas.MustLookup(KindStoreData), binary.Value{
		"owner":     binary.AddressOrZero(obj.Owner),
		"authority": binary.AddressOrZero(obj.Authority),
		"nftAmount": obj.NftAmount,
		"bump":      obj.Bump,
	})
	if err != nil {
		return nil, err
	}
	return binary.PadTo(data, StoreAccountSize), nil
}

func (obj *StoreAccount) String() string {
	return fmt.Sprintf(
		"StoreAccount{owner=%s,authority=%s,nft_amount=%d,bump=%d}",
		binary.AddressString(obj.Owner),
		binary.AddressString(obj.Authority),
		obj.NftAmount,
		obj.Bump,
	)
}
