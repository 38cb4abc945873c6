package lotterystore

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/solana/binary"
)

const (
	NftMetaAccountSize = (32 + // store_id
		8 + // nft_number
		4 + MaxNameLength + // name
		4 + MaxSymbolLength + // symbol
		4 + MaxUriLength + // uri
		32 + // mint
		32 + // token_pool
		32 + // authority
		1 + // exist_nft
		1) // bump

	NftMetaStoreOffset = 0
)

type NftMetaAccount struct {
	Store     ed25519.PublicKey
	NftNumber uint64
	Name      string
	Symbol    string
	Uri       string
	Mint      ed25519.PublicKey
	TokenPool ed25519.PublicKey
	Authority ed25519.PublicKey
	Exists    bool
	Bump      uint8
}

func (obj *NftMetaAccount) Unmarshal(data []byte) error {
	v, err := binary.DecodeUnchecked(Schemas.MustLookup(KindNftMeta), data)
	if err != nil {
		return errors.Wrap(err, "invalid nft meta account")
	}

	r := v.Reader()
	obj.Store = r.Address("storeId")
	obj.NftNumber = r.Uint64("nftNumber")
	obj.Name = trimPadding(r.String("name"))
	obj.Symbol = trimPadding(r.String("symbol"))
	obj.Uri = trimPadding(r.String("uri"))
	obj.Mint = r.Address("mint")
	obj.TokenPool = r.Address("tokenPool")
	obj.Authority = r.Address("authority")
	obj.Exists = r.Uint8("existNft") != 0
	obj.Bump = r.Uint8("bump")
	return r.Err()
}

// Marshal encodes the account with strings zero padded to their maximum
// length, as the program stores them.
func (obj *NftMetaAccount) Marshal() ([]byte, error) {
	var exists uint8
	if obj.Exists {
		exists = 1
	}

	data, err := binary.Encode(Schemas.MustLookup(KindNftMeta), binary.Value{
		"storeId":   binary.AddressOrZero(obj.Store),
		"nftNumber": obj.NftNumber,
		"name":      padString(obj.Name, MaxNameLength),
		"symbol":    padString(obj.Symbol, MaxSymbolLength),
		"uri":       padString(obj.Uri, MaxUriLength),
		"mint":      binary.AddressOrZero(obj.Mint),
		"tokenPool": binary.AddressOrZero(obj.TokenPool),
		"authority": binary.AddressOrZero(obj.Authority),
		"existNft":  exists,
		"bump":      obj.Bump,
	})
	if err != nil {
		return nil, err
	}
	return binary.PadTo(data, NftMetaAccountSize), nil
}

func (obj *NftMetaAccount) String() string {
	return fmt.Sprintf(
		"NftMetaAccount{store=%s,nft_number=%d,name=%s,symbol=%s,uri=%s,mint=%s,token_pool=%s,exists=%v}",
		binary.AddressString(obj.Store),
		obj.NftNumber,
		obj.Name,
		obj.Symbol,
		obj.Uri,
		binary.AddressString(obj.Mint),
		binary.AddressString(obj.TokenPool),
		obj.Exists,
	)
}

// trimPadding strips the zero bytes the program appends to stored strings.
func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}

func padString(s string, size int) string {
	if len(s) >= size {
		return s
	}
	return s + strings.Repeat("\x00", size-len(s))
}
