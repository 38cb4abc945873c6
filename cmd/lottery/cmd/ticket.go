package cmd

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/lotterynft/lottery-client/pkg/action"
	"github.com/lotterynft/lottery-client/pkg/app"
	"github.com/lotterynft/lottery-client/pkg/data"
)

var (
	claimIntoNewAccount bool
	ticketLottery       string
	ticketOwner         string
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Buy tickets and claim their prizes",
}

var ticketBuyCmd = &cobra.Command{
	Use:   "buy <lottery>",
	Short: "Buy a ticket of a started lottery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bidder, err := env.Wallet()
		if err != nil {
			return err
		}

		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		res, err := env.Actions.BuyTicket(commandContext(cmd), bidder, address)
		printTicketResult(cmd, res)
		return err
	},
}

var ticketClaimTokenCmd = &cobra.Command{
	Use:   "claim-token <ticket>",
	Short: "Claim back the price of a losing ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimer, err := env.Wallet()
		if err != nil {
			return err
		}

		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		res, err := env.Actions.ClaimToken(commandContext(cmd), claimer, address)
		printTicketResult(cmd, res)
		return err
	},
}

var ticketClaimNftCmd = &cobra.Command{
	Use:   "claim-nft <ticket>",
	Short: "Claim the NFT won by a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimer, err := env.Wallet()
		if err != nil {
			return err
		}

		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		destination := action.NftDestinationExisting
		if claimIntoNewAccount {
			destination = action.NftDestinationNew
		}

		res, err := env.Actions.ClaimNft(commandContext(cmd), claimer, address, destination)
		printTicketResult(cmd, res)
		return err
	},
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets of a wallet",
	Long:  "Lists the tickets owned by --owner, or by the keypair when no owner is given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		owner, err := listOwner()
		if err != nil {
			return err
		}

		var records []*data.Ticket
		if len(ticketLottery) > 0 {
			lotteryAddress, err := app.ParsePublicKey(ticketLottery)
			if err != nil {
				return err
			}
			if records, err = env.Data.GetTickets(ctx, owner, lotteryAddress); err != nil {
				return err
			}
		} else if records, err = env.Data.GetTicketsByOwner(ctx, owner); err != nil {
			return err
		}

		for _, record := range records {
			printTicket(cmd.OutOrStdout(), env.Programs.Lottery, record)
		}
		return nil
	},
}

func listOwner() (ed25519.PublicKey, error) {
	if len(ticketOwner) > 0 {
		return app.ParsePublicKey(ticketOwner)
	}

	account, err := env.Wallet()
	if err != nil {
		return nil, err
	}
	return account.PublicKey(), nil
}

func printTicketResult(cmd *cobra.Command, res *action.TicketResult) {
	if res == nil {
		return
	}

	w := cmd.OutOrStdout()
	printSubmission(w, res.Submission)
	if res.Record != nil {
		printTicket(w, env.Programs.Lottery, res.Record)
	} else {
		fmt.Fprintf(w, "Ticket:       %s\n", base58.Encode(res.Ticket))
	}
}

func init() {
	rootCmd.AddCommand(ticketCmd)
	ticketCmd.AddCommand(ticketBuyCmd, ticketClaimTokenCmd, ticketClaimNftCmd, ticketListCmd)

	ticketClaimNftCmd.Flags().BoolVar(&claimIntoNewAccount, "new-account", false, "Receive the NFT in a new token account.")

	ticketListCmd.Flags().StringVarP(&ticketLottery, "lottery", "l", "", "Only list tickets of this lottery.")
	ticketListCmd.Flags().StringVarP(&ticketOwner, "owner", "o", "", "Wallet whose tickets are listed.")
}
