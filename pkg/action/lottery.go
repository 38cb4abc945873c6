package action

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

type MakeLotteryArgs struct {
	// EndAt is the deadline. The zero time means the lottery only ends
	// explicitly.
	EndAt        time.Time
	TicketPrice  uint64
	TicketAmount uint32
	NftAmount    uint32
}

type LotteryResult struct {
	Submission *submission.Result
	Lottery    ed25519.PublicKey
	Record     *data.Lottery
}

// MakeLottery creates the lottery of store. Ticket payments in tokenMint are
// collected in a new pool account owned by the lottery.
func (c *Client) MakeLottery(ctx context.Context, creator wallet.Wallet, store, tokenMint ed25519.PublicKey, args *MakeLotteryArgs) (*LotteryResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MakeLottery")
	defer tracer.End()

	res, err := c.makeLottery(ctx, creator, store, tokenMint, args)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) makeLottery(ctx context.Context, creator wallet.Wallet, store, tokenMint ed25519.PublicKey, args *MakeLotteryArgs) (*LotteryResult, error) {
	program := c.programs().Lottery

	address, err := lottery.GetLotteryAddress(program, store)
	if err != nil {
		return nil, err
	}

	_, err = c.data.GetLottery(ctx, address.Address)
	switch {
	case err == nil:
		return nil, ErrLotteryExists
	case !errors.Is(err, data.ErrAccountNotFound):
		return nil, err
	}

	var endAt uint64
	if !args.EndAt.IsZero() {
		endAt = uint64(args.EndAt.Unix())
	}

	b := submission.NewBuilder(creator)
	pool, err := c.addTokenAccount(ctx, b, creator.PublicKey(), tokenMint, address.Address, 0)
	if err != nil {
		return nil, err
	}

	instruction, err := lottery.NewCreateLotteryInstruction(
		program,
		&lottery.CreateLotteryInstructionAccounts{
			Creator:   creator.PublicKey(),
			Store:     store,
			TokenMint: tokenMint,
			TokenPool: pool.PublicKey(),
		},
		&lottery.CreateLotteryInstructionArgs{
			EndAt:        endAt,
			TicketPrice:  args.TicketPrice,
			TicketAmount: args.TicketAmount,
			NftAmount:    args.NftAmount,
		},
	)
	if err != nil {
		return nil, err
	}
	b.Add(instruction)

	return c.submitLotteryUnit(ctx, "MakeLottery", b, address.Address)
}

// StartLottery opens the store's lottery for ticket sales.
func (c *Client) StartLottery(ctx context.Context, payer wallet.Wallet, store ed25519.PublicKey) (*LotteryResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "StartLottery")
	defer tracer.End()

	res, err := c.changeLotteryState(ctx, payer, store, lottery.LotteryStateStarted)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

// EndLottery ends the store's lottery. A lottery past its deadline still
// needs an explicit end to record it on chain.
func (c *Client) EndLottery(ctx context.Context, payer wallet.Wallet, store ed25519.PublicKey) (*LotteryResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "EndLottery")
	defer tracer.End()

	res, err := c.changeLotteryState(ctx, payer, store, lottery.LotteryStateEnded)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) changeLotteryState(ctx context.Context, payer wallet.Wallet, store ed25519.PublicKey, next lottery.LotteryState) (*LotteryResult, error) {
	program := c.programs().Lottery

	current, err := c.data.GetLotteryByStore(ctx, store)
	if err != nil {
		return nil, err
	}

	accounts := &lottery.LotteryStateInstructionAccounts{
		Payer: payer.PublicKey(),
		Store: store,
	}

	var instruction func(ed25519.PublicKey, *lottery.LotteryStateInstructionAccounts) (solana.Instruction, error)
	var method string
	switch next {
	case lottery.LotteryStateStarted:
		if current.EffectiveState(c.now()) != lottery.LotteryStateCreated {
			return nil, errors.Wrapf(ErrLotteryNotStartable, "lottery is %s", current.EffectiveState(c.now()))
		}
		instruction, method = lottery.NewStartLotteryInstruction, "StartLottery"
	case lottery.LotteryStateEnded:
		// Recorded state, not the effective one: a lottery past its deadline
		// still accepts the end instruction.
		if current.State == lottery.LotteryStateEnded {
			return nil, ErrLotteryEnded
		}
		instruction, method = lottery.NewEndLotteryInstruction, "EndLottery"
	default:
		return nil, errors.Errorf("unsupported lottery transition to %s", next)
	}

	ix, err := instruction(program, accounts)
	if err != nil {
		return nil, err
	}
	return c.submitLotteryUnit(ctx, method, submission.NewBuilder(payer).Add(ix), current.Address)
}

// SetLotteryAuthority hands control of the store's lottery to newAuthority.
func (c *Client) SetLotteryAuthority(ctx context.Context, current wallet.Wallet, store, newAuthority ed25519.PublicKey) (*LotteryResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SetLotteryAuthority")
	defer tracer.End()

	res, err := c.setLotteryAuthority(ctx, current, store, newAuthority)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) setLotteryAuthority(ctx context.Context, current wallet.Wallet, store, newAuthority ed25519.PublicKey) (*LotteryResult, error) {
	program := c.programs().Lottery

	address, err := lottery.GetLotteryAddress(program, store)
	if err != nil {
		return nil, err
	}

	instruction := lottery.NewSetAuthorityInstruction(program, &lottery.SetAuthorityInstructionAccounts{
		Lottery:          address.Address,
		CurrentAuthority: current.PublicKey(),
		NewAuthority:     newAuthority,
	})
	return c.submitLotteryUnit(ctx, "SetLotteryAuthority", submission.NewBuilder(current).Add(instruction), address.Address)
}

// submitLotteryUnit submits b and re-reads the lottery whatever the outcome.
func (c *Client) submitLotteryUnit(ctx context.Context, method string, b *submission.Builder, address ed25519.PublicKey) (*LotteryResult, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":  method,
		"lottery": base58.Encode(address),
	})

	sub, err := c.submitter.Execute(ctx, b)
	res := &LotteryResult{Submission: sub, Lottery: address}

	record, readErr := c.data.GetLottery(ctx, address)
	if readErr != nil {
		log.WithError(readErr).Debug("lottery not readable after submission")
	} else {
		res.Record = record
	}

	if err != nil {
		return res, explain(c.programs().Lottery, b, err)
	}
	log.Info("lottery updated")
	return res, nil
}
