package cmd

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lotterynft/lottery-client/pkg/action"
	"github.com/lotterynft/lottery-client/pkg/app"
	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/solana/token"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

var (
	lotteryMint     string
	ticketPrice     uint64
	ticketAmount    uint32
	prizeAmount     uint32
	lotteryDuration time.Duration
	lotteryEndAt    string
	lotteryStore    string
)

var lotteryCmd = &cobra.Command{
	Use:   "lottery",
	Short: "Create, run and inspect lotteries",
}

var lotteryCreateCmd = &cobra.Command{
	Use:   "create <store>",
	Short: "Create the lottery of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creator, err := env.Wallet()
		if err != nil {
			return err
		}

		store, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		mint := token.NativeMint
		if len(lotteryMint) > 0 {
			if mint, err = app.ParsePublicKey(lotteryMint); err != nil {
				return err
			}
		}

		endAt, err := deadline(time.Now())
		if err != nil {
			return err
		}

		res, err := env.Actions.MakeLottery(commandContext(cmd), creator, store, mint, &action.MakeLotteryArgs{
			EndAt:        endAt,
			TicketPrice:  ticketPrice,
			TicketAmount: ticketAmount,
			NftAmount:    prizeAmount,
		})
		printLotteryResult(cmd, res)
		return err
	},
}

var lotteryStartCmd = &cobra.Command{
	Use:   "start <store>",
	Short: "Start selling tickets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeLottery(cmd, args[0], env.Actions.StartLottery)
	},
}

var lotteryEndCmd = &cobra.Command{
	Use:   "end <store>",
	Short: "End a lottery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeLottery(cmd, args[0], env.Actions.EndLottery)
	},
}

var lotterySetAuthorityCmd = &cobra.Command{
	Use:   "set-authority <store> <authority>",
	Short: "Hand the lottery over to a new authority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := env.Wallet()
		if err != nil {
			return err
		}

		store, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}
		authority, err := app.ParsePublicKey(args[1])
		if err != nil {
			return err
		}

		res, err := env.Actions.SetLotteryAuthority(commandContext(cmd), current, store, authority)
		printLotteryResult(cmd, res)
		return err
	},
}

var lotteryShowCmd = &cobra.Command{
	Use:   "show <lottery>",
	Short: "Show a lottery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		record, err := env.Data.GetLottery(commandContext(cmd), address)
		if err != nil {
			return err
		}
		printLottery(cmd.OutOrStdout(), record, time.Now())
		return nil
	},
}

var lotteryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lotteries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		var records []*data.Lottery
		if len(lotteryStore) > 0 {
			store, err := app.ParsePublicKey(lotteryStore)
			if err != nil {
				return err
			}
			if records, err = env.Data.GetLotteriesByStore(ctx, store); err != nil {
				return err
			}
		} else {
			var err error
			if records, err = env.Data.GetLotteries(ctx); err != nil {
				return err
			}
		}

		now := time.Now()
		for i, record := range records {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printLottery(cmd.OutOrStdout(), record, now)
		}
		return nil
	},
}

var lotteryWatchCmd = &cobra.Command{
	Use:   "watch <lottery>",
	Short: "Follow a lottery until it ends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		updates := make(chan data.LotteryUpdate)
		done := make(chan error, 1)
		go func() {
			done <- env.Data.WatchLottery(ctx, address).Run(ctx, updates)
			close(updates)
		}()

		for update := range updates {
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s  %-8s  %d/%d sold  %s\n",
				time.Now().UTC().Format(time.RFC3339),
				update.State.String(),
				update.Lottery.SoldAmount,
				update.Lottery.TicketAmount,
				remaining(update.Countdown),
			)
		}

		if err := <-done; err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}

type lotteryChange func(ctx context.Context, payer wallet.Wallet, store ed25519.PublicKey) (*action.LotteryResult, error)

func changeLottery(cmd *cobra.Command, value string, change lotteryChange) error {
	payer, err := env.Wallet()
	if err != nil {
		return err
	}

	store, err := app.ParsePublicKey(value)
	if err != nil {
		return err
	}

	res, err := change(commandContext(cmd), payer, store)
	printLotteryResult(cmd, res)
	return err
}

func printLotteryResult(cmd *cobra.Command, res *action.LotteryResult) {
	if res == nil {
		return
	}

	w := cmd.OutOrStdout()
	printSubmission(w, res.Submission)
	if res.Record != nil {
		printLottery(w, res.Record, time.Now())
	} else {
		fmt.Fprintf(w, "Lottery:      %s\n", base58.Encode(res.Lottery))
	}
}

// deadline resolves the end flags against now. The zero time means the
// lottery has no deadline.
func deadline(now time.Time) (time.Time, error) {
	switch {
	case len(lotteryEndAt) > 0 && lotteryDuration > 0:
		return time.Time{}, errors.New("--end-at and --duration are mutually exclusive")
	case len(lotteryEndAt) > 0:
		endAt, err := time.Parse(time.RFC3339, lotteryEndAt)
		if err != nil {
			return time.Time{}, errors.Wrap(err, "--end-at must be an RFC 3339 time")
		}
		return endAt, nil
	case lotteryDuration > 0:
		return now.Add(lotteryDuration), nil
	}
	return time.Time{}, nil
}

func init() {
	rootCmd.AddCommand(lotteryCmd)
	lotteryCmd.AddCommand(
		lotteryCreateCmd,
		lotteryStartCmd,
		lotteryEndCmd,
		lotterySetAuthorityCmd,
		lotteryShowCmd,
		lotteryListCmd,
		lotteryWatchCmd,
	)

	lotteryCreateCmd.Flags().StringVarP(&lotteryMint, "mint", "m", "", "Mint tickets are paid in. Defaults to wrapped SOL.")
	lotteryCreateCmd.Flags().Uint64VarP(&ticketPrice, "price", "p", 0, "Ticket price in base units of the mint.")
	lotteryCreateCmd.Flags().Uint32VarP(&ticketAmount, "tickets", "t", 0, "Number of tickets for sale.")
	lotteryCreateCmd.Flags().Uint32VarP(&prizeAmount, "prizes", "n", 0, "Number of NFTs that can be won.")
	lotteryCreateCmd.Flags().DurationVarP(&lotteryDuration, "duration", "d", 0, "Time until the lottery ends.")
	lotteryCreateCmd.Flags().StringVar(&lotteryEndAt, "end-at", "", "RFC 3339 time the lottery ends at.")
	_ = lotteryCreateCmd.MarkFlagRequired("price")
	_ = lotteryCreateCmd.MarkFlagRequired("tickets")
	_ = lotteryCreateCmd.MarkFlagRequired("prizes")

	lotteryListCmd.Flags().StringVarP(&lotteryStore, "store", "s", "", "Only list lotteries of this store.")
}
