// Package data is the read path: it fetches program accounts from a node and
// decodes them into lottery and store records.
package data

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/cache"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
)

const (
	blockchainProviderMetricsName = "data.blockchain_provider"

	rentCacheBudget = 64
)

var (
	// ErrAccountNotFound indicates there is no account at the address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnexpectedOwner indicates the account exists but is not owned by
	// the program expected to hold it.
	ErrUnexpectedOwner = errors.New("account has unexpected owner")
)

// Programs identifies the deployed store and lottery programs.
type Programs struct {
	Store   ed25519.PublicKey
	Lottery ed25519.PublicKey
}

type BlockchainProvider struct {
	log       *logrus.Entry
	sc        solana.Client
	programs  Programs
	conf      *conf
	rentCache cache.Cache
}

func NewBlockchainProvider(sc solana.Client, programs Programs, configProvider ConfigProvider) *BlockchainProvider {
	return &BlockchainProvider{
		log:       logrus.StandardLogger().WithField("type", "data/blockchain_provider"),
		sc:        sc,
		programs:  programs,
		conf:      configProvider(),
		rentCache: cache.NewCache(rentCacheBudget),
	}
}

// Client returns the underlying node client.
func (dp *BlockchainProvider) Client() solana.Client {
	return dp.sc
}

func (dp *BlockchainProvider) Programs() Programs {
	return dp.programs
}

func (dp *BlockchainProvider) commitment(ctx context.Context) solana.Commitment {
	commitment, err := solana.CommitmentFromString(dp.conf.commitment.Get(ctx))
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}

// Solana
// --------------------------------------------------------------------------------

func (dp *BlockchainProvider) GetBlockchainAccountInfo(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainAccountInfo")
	defer tracer.End()

	info, err := dp.sc.GetAccountInfo(ctx, account, dp.commitment(ctx))
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return &info, nil
}

func (dp *BlockchainProvider) GetBlockchainBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainBalance")
	defer tracer.End()

	balance, err := dp.sc.GetBalance(ctx, account)
	if err != nil {
		tracer.OnError(err)
	}
	return balance, err
}

// GetBlockchainMinimumBalanceForRentExemption returns the rent exemption
// minimum for an account of size bytes. Quotes are cached.
func (dp *BlockchainProvider) GetBlockchainMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainMinimumBalanceForRentExemption")
	defer tracer.End()

	key := strconv.FormatUint(size, 10)
	if cached, ok := dp.rentCache.Retrieve(key); ok {
		return cached.(uint64), nil
	}

	lamports, err := dp.sc.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		tracer.OnError(err)
		return 0, err
	}

	if err := dp.rentCache.InsertWithTTL(key, lamports, 1, dp.conf.rentCacheTTL.Get(ctx)); err != nil && err != cache.ErrKeyExists {
		dp.log.WithError(err).Warn("failed to cache rent exemption quote")
	}
	return lamports, nil
}

// GetBlockchainTokenAccount returns the token account at address.
func (dp *BlockchainProvider) GetBlockchainTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainTokenAccount")
	defer tracer.End()

	info, err := dp.GetBlockchainAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, token.ProgramKey) {
		return nil, ErrUnexpectedOwner
	}

	var account token.Account
	if !account.Unmarshal(info.Data) {
		err = token.ErrInvalidTokenAccount
		tracer.OnError(err)
		return nil, err
	}
	return &account, nil
}

// GetBlockchainMint returns the mint at address.
func (dp *BlockchainProvider) GetBlockchainMint(ctx context.Context, address ed25519.PublicKey) (*token.Mint, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainMint")
	defer tracer.End()

	data, err := dp.getProgramAccount(ctx, token.ProgramKey, address)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(data) || !mint.IsInitialized {
		err = token.ErrInvalidMint
		tracer.OnError(err)
		return nil, err
	}
	return &mint, nil
}

// GetBlockchainTokenAccountsByOwner returns the token accounts of mint held
// by owner.
func (dp *BlockchainProvider) GetBlockchainTokenAccountsByOwner(ctx context.Context, owner, mint ed25519.PublicKey) ([]ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetBlockchainTokenAccountsByOwner")
	defer tracer.End()

	accounts, err := dp.sc.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		tracer.OnError(err)
	}
	return accounts, err
}

func (dp *BlockchainProvider) getProgramAccount(ctx context.Context, program, address ed25519.PublicKey) ([]byte, error) {
	info, err := dp.GetBlockchainAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(info.Owner, program) {
		return nil, ErrUnexpectedOwner
	}
	return info.Data, nil
}

func (dp *BlockchainProvider) scan(ctx context.Context, program ed25519.PublicKey, filters ...solana.AccountFilter) ([]solana.KeyedAccount, error) {
	accounts, err := dp.sc.GetProgramAccounts(ctx, program, dp.commitment(ctx), filters...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan program accounts")
	}
	return accounts, nil
}
