package data

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/lotterystore"
)

// NftMeta is a decoded NFT metadata account and its address.
type NftMeta struct {
	Address ed25519.PublicKey
	lotterystore.NftMetaAccount
}

const nftMetaNumberOffset = lotterystore.NftMetaStoreOffset + ed25519.PublicKeySize

func (dp *BlockchainProvider) GetStore(ctx context.Context, address ed25519.PublicKey) (*lotterystore.StoreAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetStore")
	defer tracer.End()

	data, err := dp.getProgramAccount(ctx, dp.programs.Store, address)
	if err != nil {
		return nil, err
	}

	var store lotterystore.StoreAccount
	if err := store.Unmarshal(data); err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return &store, nil
}

func (dp *BlockchainProvider) GetNftMeta(ctx context.Context, address ed25519.PublicKey) (*NftMeta, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetNftMeta")
	defer tracer.End()

	data, err := dp.getProgramAccount(ctx, dp.programs.Store, address)
	if err != nil {
		return nil, err
	}

	meta := &NftMeta{Address: address}
	if err := meta.Unmarshal(data); err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return meta, nil
}

// GetNftMetasByStore returns every NFT minted into store, ordered by number.
func (dp *BlockchainProvider) GetNftMetasByStore(ctx context.Context, store ed25519.PublicKey) ([]*NftMeta, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetNftMetasByStore")
	defer tracer.End()

	metas, err := dp.scanNftMetas(ctx,
		solana.DataSizeFilter(lotterystore.NftMetaAccountSize),
		solana.MemcmpAt(lotterystore.NftMetaStoreOffset, store),
	)
	if err != nil {
		tracer.OnError(err)
	}
	return metas, err
}

// GetNftMetaByNumber returns the NFT with the given number in store. This is
// how a winning ticket's prize is located.
func (dp *BlockchainProvider) GetNftMetaByNumber(ctx context.Context, store ed25519.PublicKey, number uint64) (*NftMeta, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetNftMetaByNumber")
	defer tracer.End()

	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], number)

	metas, err := dp.scanNftMetas(ctx,
		solana.DataSizeFilter(lotterystore.NftMetaAccountSize),
		solana.MemcmpAt(lotterystore.NftMetaStoreOffset, store),
		solana.MemcmpAt(nftMetaNumberOffset, encoded[:]),
	)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	if len(metas) == 0 {
		return nil, ErrAccountNotFound
	}
	if len(metas) > 1 {
		dp.log.WithField("nft_number", number).Warn("multiple nft metas share a number")
	}
	return metas[0], nil
}

func (dp *BlockchainProvider) scanNftMetas(ctx context.Context, filters ...solana.AccountFilter) ([]*NftMeta, error) {
	accounts, err := dp.scan(ctx, dp.programs.Store, filters...)
	if err != nil {
		return nil, err
	}

	metas := make([]*NftMeta, 0, len(accounts))
	for _, account := range accounts {
		meta := &NftMeta{Address: account.PublicKey}
		if err := meta.Unmarshal(account.Account.Data); err != nil {
			return nil, errors.Wrapf(err, "failed to decode nft meta %s", base58.Encode(account.PublicKey))
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].NftNumber < metas[j].NftNumber
	})
	return metas, nil
}
