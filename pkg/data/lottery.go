package data

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
)

// Lottery is a decoded lottery account and its address.
type Lottery struct {
	Address ed25519.PublicKey
	lottery.LotteryAccount
}

// Ticket is a decoded ticket account and its address.
type Ticket struct {
	Address ed25519.PublicKey
	lottery.TicketAccount
}

func (dp *BlockchainProvider) GetLottery(ctx context.Context, address ed25519.PublicKey) (*Lottery, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetLottery")
	defer tracer.End()

	data, err := dp.getProgramAccount(ctx, dp.programs.Lottery, address)
	if err != nil {
		return nil, err
	}

	record := &Lottery{Address: address}
	if err := record.Unmarshal(data); err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return record, nil
}

// GetLotteryByStore returns the lottery created for store, which lives at a
// program derived address.
func (dp *BlockchainProvider) GetLotteryByStore(ctx context.Context, store ed25519.PublicKey) (*Lottery, error) {
	address, err := lottery.GetLotteryAddress(dp.programs.Lottery, store)
	if err != nil {
		return nil, err
	}
	return dp.GetLottery(ctx, address.Address)
}

// GetLotteries returns every lottery account of the program.
func (dp *BlockchainProvider) GetLotteries(ctx context.Context) ([]*Lottery, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetLotteries")
	defer tracer.End()

	lotteries, err := dp.scanLotteries(ctx, solana.DataSizeFilter(lottery.LotteryAccountSize))
	if err != nil {
		tracer.OnError(err)
	}
	return lotteries, err
}

// GetLotteriesByStore returns the lotteries drawing from store.
func (dp *BlockchainProvider) GetLotteriesByStore(ctx context.Context, store ed25519.PublicKey) ([]*Lottery, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetLotteriesByStore")
	defer tracer.End()

	lotteries, err := dp.scanLotteries(ctx,
		solana.DataSizeFilter(lottery.LotteryAccountSize),
		solana.MemcmpAt(lottery.LotteryStoreOffset, store),
	)
	if err != nil {
		tracer.OnError(err)
	}
	return lotteries, err
}

func (dp *BlockchainProvider) scanLotteries(ctx context.Context, filters ...solana.AccountFilter) ([]*Lottery, error) {
	accounts, err := dp.scan(ctx, dp.programs.Lottery, filters...)
	if err != nil {
		return nil, err
	}

	lotteries := make([]*Lottery, 0, len(accounts))
	for _, account := range accounts {
		record := &Lottery{Address: account.PublicKey}
		if err := record.Unmarshal(account.Account.Data); err != nil {
			return nil, errors.Wrapf(err, "failed to decode lottery %s", base58.Encode(account.PublicKey))
		}
		lotteries = append(lotteries, record)
	}
	return lotteries, nil
}

func (dp *BlockchainProvider) GetTicket(ctx context.Context, address ed25519.PublicKey) (*Ticket, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetTicket")
	defer tracer.End()

	data, err := dp.getProgramAccount(ctx, dp.programs.Lottery, address)
	if err != nil {
		return nil, err
	}

	record := &Ticket{Address: address}
	if err := record.Unmarshal(data); err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return record, nil
}

// GetTickets returns the tickets owner holds in lotteryAddress.
func (dp *BlockchainProvider) GetTickets(ctx context.Context, owner, lotteryAddress ed25519.PublicKey) ([]*Ticket, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetTickets")
	defer tracer.End()

	tickets, err := dp.scanTickets(ctx,
		solana.DataSizeFilter(lottery.TicketAccountSize),
		solana.MemcmpAt(lottery.TicketOwnerOffset, owner),
		solana.MemcmpAt(lottery.TicketLotteryOffset, lotteryAddress),
	)
	if err != nil {
		tracer.OnError(err)
	}
	return tickets, err
}

// GetTicketsByOwner returns every ticket held by owner.
func (dp *BlockchainProvider) GetTicketsByOwner(ctx context.Context, owner ed25519.PublicKey) ([]*Ticket, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, "GetTicketsByOwner")
	defer tracer.End()

	tickets, err := dp.scanTickets(ctx,
		solana.DataSizeFilter(lottery.TicketAccountSize),
		solana.MemcmpAt(lottery.TicketOwnerOffset, owner),
	)
	if err != nil {
		tracer.OnError(err)
	}
	return tickets, err
}

func (dp *BlockchainProvider) scanTickets(ctx context.Context, filters ...solana.AccountFilter) ([]*Ticket, error) {
	accounts, err := dp.scan(ctx, dp.programs.Lottery, filters...)
	if err != nil {
		return nil, err
	}

	tickets := make([]*Ticket, 0, len(accounts))
	for _, account := range accounts {
		record := &Ticket{Address: account.PublicKey}
		if err := record.Unmarshal(account.Account.Data); err != nil {
			return nil, errors.Wrapf(err, "failed to decode ticket %s", base58.Encode(account.PublicKey))
		}
		tickets = append(tickets, record)
	}
	return tickets, nil
}
