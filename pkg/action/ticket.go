package action

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

type TicketResult struct {
	Submission *submission.Result
	Ticket     ed25519.PublicKey

	// Record is the ticket as read after the submission. It is nil when the
	// ticket could not be read.
	Record *data.Ticket
}

// BuyTicket buys one ticket of a started lottery. The ticket is settled as
// won or not won by the program within the same unit.
//
// Native mint lotteries are paid through a temporary wrapped SOL account
// that is closed at the end of the unit. Other mints are paid from the
// bidder's existing token account.
func (c *Client) BuyTicket(ctx context.Context, bidder wallet.Wallet, lotteryAddress ed25519.PublicKey) (*TicketResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "BuyTicket")
	defer tracer.End()

	res, err := c.buyTicket(ctx, bidder, lotteryAddress)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) buyTicket(ctx context.Context, bidder wallet.Wallet, lotteryAddress ed25519.PublicKey) (*TicketResult, error) {
	program := c.programs().Lottery

	record, err := c.data.GetLottery(ctx, lotteryAddress)
	if err != nil {
		return nil, err
	}
	if !record.IsOpen(c.now()) {
		return nil, errors.Wrapf(ErrLotteryClosed, "lottery is %s with %d tickets left", record.EffectiveState(c.now()), record.RemainingTickets())
	}

	ticket, err := wallet.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ticket account")
	}

	b := submission.NewBuilder(bidder).AddSigner(ticket)
	payment, err := c.paymentAccount(ctx, b, bidder.PublicKey(), record.TokenMint, record.TicketPrice)
	if err != nil {
		return nil, err
	}

	b.Add(lottery.NewGetTicketInstruction(program, &lottery.GetTicketInstructionAccounts{
		Lottery:           lotteryAddress,
		Ticket:            ticket.PublicKey(),
		Bidder:            bidder.PublicKey(),
		BidderToken:       payment,
		TokenPool:         record.TokenPool,
		TokenMint:         record.TokenMint,
		TransferAuthority: bidder.PublicKey(),
	}))

	return c.submitTicketUnit(ctx, "BuyTicket", b, ticket.PublicKey())
}

// ClaimToken refunds the price of a losing ticket.
//
// Claims are not checked locally against the ticket's state. A ticket that
// was already claimed is rejected by the program with ErrorAlreadyClaimed.
func (c *Client) ClaimToken(ctx context.Context, claimer wallet.Wallet, ticketAddress ed25519.PublicKey) (*TicketResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ClaimToken")
	defer tracer.End()

	res, err := c.claimToken(ctx, claimer, ticketAddress)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) claimToken(ctx context.Context, claimer wallet.Wallet, ticketAddress ed25519.PublicKey) (*TicketResult, error) {
	program := c.programs().Lottery

	ticket, err := c.ownedTicket(ctx, claimer, ticketAddress)
	if err != nil {
		return nil, err
	}
	record, err := c.data.GetLottery(ctx, ticket.Lottery)
	if err != nil {
		return nil, err
	}

	b := submission.NewBuilder(claimer)
	destination, err := c.receivingAccount(ctx, b, claimer.PublicKey(), record.TokenMint, false)
	if err != nil {
		return nil, err
	}

	b.Add(lottery.NewClaimTokenInstruction(program, &lottery.ClaimTokenInstructionAccounts{
		Lottery:   ticket.Lottery,
		Claimer:   claimer.PublicKey(),
		Ticket:    ticketAddress,
		TokenPool: record.TokenPool,
		UserToken: destination,
	}))

	return c.submitTicketUnit(ctx, "ClaimToken", b, ticketAddress)
}

// NftDestination selects the token account a claimed NFT is sent to.
type NftDestination uint8

const (
	// NftDestinationExisting uses the claimer's token account of the NFT's
	// mint, creating one when none exists.
	NftDestinationExisting NftDestination = iota
	// NftDestinationNew always creates a new token account.
	NftDestinationNew
)

// ClaimNft transfers the NFT won by a ticket to the claimer.
//
// As with ClaimToken, a second claim is rejected by the program rather than
// checked locally.
func (c *Client) ClaimNft(ctx context.Context, claimer wallet.Wallet, ticketAddress ed25519.PublicKey, destination NftDestination) (*TicketResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ClaimNft")
	defer tracer.End()

	res, err := c.claimNft(ctx, claimer, ticketAddress, destination)
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}

func (c *Client) claimNft(ctx context.Context, claimer wallet.Wallet, ticketAddress ed25519.PublicKey, destination NftDestination) (*TicketResult, error) {
	program := c.programs().Lottery

	ticket, err := c.ownedTicket(ctx, claimer, ticketAddress)
	if err != nil {
		return nil, err
	}
	if ticket.WonNftNumber == 0 {
		return nil, ErrNoPrize
	}
	record, err := c.data.GetLottery(ctx, ticket.Lottery)
	if err != nil {
		return nil, err
	}
	nft, err := c.data.GetNftMetaByNumber(ctx, record.Store, ticket.WonNftNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "nft %d of store", ticket.WonNftNumber)
	}

	b := submission.NewBuilder(claimer)
	userNft, err := c.receivingAccount(ctx, b, claimer.PublicKey(), nft.Mint, destination == NftDestinationNew)
	if err != nil {
		return nil, err
	}

	b.Add(lottery.NewClaimNftInstruction(program, &lottery.ClaimNftInstructionAccounts{
		Lottery: ticket.Lottery,
		Store:   record.Store,
		Claimer: claimer.PublicKey(),
		Ticket:  ticketAddress,
		NftMeta: nft.Address,
		NftMint: nft.Mint,
		NftPool: nft.TokenPool,
		UserNft: userNft,
	}))

	return c.submitTicketUnit(ctx, "ClaimNft", b, ticketAddress)
}

func (c *Client) ownedTicket(ctx context.Context, owner wallet.Wallet, address ed25519.PublicKey) (*data.Ticket, error) {
	ticket, err := c.data.GetTicket(ctx, address)
	if err != nil {
		return nil, err
	}
	if !ticket.Owner.Equal(owner.PublicKey()) {
		return nil, ErrNotTicketOwner
	}
	return ticket, nil
}

// submitTicketUnit submits b and re-reads the ticket whatever the outcome,
// so callers never act on a state assumed from the submission alone.
func (c *Client) submitTicketUnit(ctx context.Context, method string, b *submission.Builder, ticket ed25519.PublicKey) (*TicketResult, error) {
	log := c.log.WithFields(logrus.Fields{
		"method": method,
		"ticket": base58.Encode(ticket),
	})

	sub, err := c.submitter.Execute(ctx, b)
	res := &TicketResult{Submission: sub, Ticket: ticket}

	record, readErr := c.data.GetTicket(ctx, ticket)
	if readErr != nil {
		log.WithError(readErr).Debug("ticket not readable after submission")
	} else {
		res.Record = record
		log = log.WithField("ticket_state", record.State.String())
	}

	if err != nil {
		err = explain(c.programs().Lottery, b, err)
		log.WithError(err).Warn("ticket submission failed")
		return res, err
	}
	log.Info("ticket updated")
	return res, nil
}
