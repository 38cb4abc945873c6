package cmd

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"time"

	"github.com/mr-tron/base58"

	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/solana/lottery"
	"github.com/lotterynft/lottery-client/pkg/solana/lotterystore"
	"github.com/lotterynft/lottery-client/pkg/submission"
)

func printSubmission(w io.Writer, res *submission.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "Signature:    %s\n", res.Signature.String())
	fmt.Fprintf(w, "Outcome:      %s after %d attempt(s)\n", res.State.String(), res.Attempts)
}

func printStore(w io.Writer, address []byte, store *lotterystore.StoreAccount) {
	fmt.Fprintf(w, "Store:        %s\n", base58.Encode(address))
	if store == nil {
		return
	}
	fmt.Fprintf(w, "Owner:        %s\n", base58.Encode(store.Owner))
	fmt.Fprintf(w, "Authority:    %s\n", base58.Encode(store.Authority))
	fmt.Fprintf(w, "NFTs:         %d\n", store.NftAmount)
}

func printNftMeta(w io.Writer, meta *data.NftMeta) {
	fmt.Fprintf(w, "NFT #%d  %s (%s)\n", meta.NftNumber, meta.Name, meta.Symbol)
	fmt.Fprintf(w, "  Meta:       %s\n", base58.Encode(meta.Address))
	fmt.Fprintf(w, "  Mint:       %s\n", base58.Encode(meta.Mint))
	fmt.Fprintf(w, "  URI:        %s\n", meta.Uri)
}

func printLottery(w io.Writer, record *data.Lottery, now time.Time) {
	fmt.Fprintf(w, "Lottery:      %s\n", base58.Encode(record.Address))
	fmt.Fprintf(w, "Store:        %s\n", base58.Encode(record.Store))
	fmt.Fprintf(w, "Authority:    %s\n", base58.Encode(record.Authority))
	fmt.Fprintf(w, "Token mint:   %s\n", base58.Encode(record.TokenMint))
	fmt.Fprintf(w, "State:        %s\n", record.EffectiveState(now).String())
	fmt.Fprintf(w, "Tickets:      %d/%d sold at %d\n", record.SoldAmount, record.TicketAmount, record.TicketPrice)
	fmt.Fprintf(w, "Prizes:       %d\n", record.NftAmount)
	if record.EndAt > 0 {
		fmt.Fprintf(w, "Ends:         %s (%s)\n", record.Deadline().UTC().Format(time.RFC3339), remaining(record.TimeToEnd(now)))
	}
}

func remaining(countdown lottery.Countdown) string {
	if countdown.Done() {
		return "over"
	}
	return countdown.String() + " left"
}

// printTicket shows a ticket along with the addresses the lottery program
// signs with for it.
func printTicket(w io.Writer, program ed25519.PublicKey, record *data.Ticket) {
	fmt.Fprintf(w, "Ticket:       %s\n", base58.Encode(record.Address))
	fmt.Fprintf(w, "  Lottery:    %s\n", base58.Encode(record.Lottery))
	fmt.Fprintf(w, "  State:      %s\n", record.State.String())
	if authority, err := lottery.GetTicketAuthorityAddress(program, record.Address); err == nil {
		fmt.Fprintf(w, "  Authority:  %s\n", authority.String())
	}
	if authority, err := lottery.GetTokenAuthorityAddress(program, record.Lottery, record.Owner); err == nil {
		fmt.Fprintf(w, "  Payment:    %s\n", authority.String())
	}
	if record.WonNftNumber > 0 {
		fmt.Fprintf(w, "  Prize:      NFT #%d\n", record.WonNftNumber)
	}
}
