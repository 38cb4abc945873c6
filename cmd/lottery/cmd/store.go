package cmd

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/lotterynft/lottery-client/pkg/action"
	"github.com/lotterynft/lottery-client/pkg/app"
	"github.com/lotterynft/lottery-client/pkg/upload"
)

var (
	nftName   string
	nftSymbol string
	nftUri    string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Create stores and mint NFTs into them",
}

var storeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a store owned by the keypair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := env.Wallet()
		if err != nil {
			return err
		}

		res, err := env.Actions.MakeStore(commandContext(cmd), owner)
		if res != nil {
			printSubmission(cmd.OutOrStdout(), res.Submission)
			printStore(cmd.OutOrStdout(), res.Store, res.Record)
		}
		return err
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <store>",
	Short: "Show a store and the NFTs minted into it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		address, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		store, err := env.Data.GetStore(ctx, address)
		if err != nil {
			return err
		}
		printStore(cmd.OutOrStdout(), address, store)

		metas, err := env.Data.GetNftMetasByStore(ctx, address)
		if err != nil {
			return err
		}
		for _, meta := range metas {
			printNftMeta(cmd.OutOrStdout(), meta)
		}
		return nil
	},
}

var storeQuoteCmd = &cobra.Command{
	Use:   "quote <file>...",
	Short: "Quote the cost of storing files, in lamports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(args)
		if err != nil {
			return err
		}

		lamports, err := env.Quoter.CostToStore(commandContext(cmd), files)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", lamports)
		return nil
	},
}

var storeMintCmd = &cobra.Command{
	Use:   "mint <store> <file>...",
	Short: "Upload assets and mint an NFT into a store",
	Long: "Uploads the files along with a generated metadata file, paying for storage in the same transaction " +
		"that mints the NFT, then points the NFT at the uploaded manifest.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		creator, err := env.Wallet()
		if err != nil {
			return err
		}

		store, err := app.ParsePublicKey(args[0])
		if err != nil {
			return err
		}

		files, err := readFiles(args[1:])
		if err != nil {
			return err
		}

		res, err := env.Actions.MintNft(commandContext(cmd), creator, store, &action.MintNftArgs{
			Name:   nftName,
			Symbol: nftSymbol,
			Uri:    nftUri,
		}, files)
		if res != nil {
			w := cmd.OutOrStdout()
			printSubmission(w, res.Submission)
			if res.Update != nil {
				printSubmission(w, res.Update)
			}
			fmt.Fprintf(w, "Mint:         %s\n", base58.Encode(res.Mint))
			if res.Record != nil {
				printNftMeta(w, res.Record)
			}
		}
		return err
	},
}

func readFiles(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		file, err := upload.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeCreateCmd, storeShowCmd, storeQuoteCmd, storeMintCmd)

	storeMintCmd.Flags().StringVarP(&nftName, "name", "n", "", "Name of the NFT.")
	storeMintCmd.Flags().StringVarP(&nftSymbol, "symbol", "s", "", "Symbol of the NFT.")
	storeMintCmd.Flags().StringVar(&nftUri, "uri", "", "URI recorded until the uploaded manifest is known.")
	_ = storeMintCmd.MarkFlagRequired("name")
	_ = storeMintCmd.MarkFlagRequired("symbol")
}
