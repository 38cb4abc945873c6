package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lotterynft/lottery-client/pkg/wallet"
)

var overwriteKeypair bool

// keygenCmd works without a configured cluster, so it replaces the root's
// setup.
var keygenCmd = &cobra.Command{
	Use:   "keygen <path>",
	Short: "Generate a keypair file",
	Args:  cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !overwriteKeypair {
			return errors.Errorf("%s already exists", path)
		}

		account, err := wallet.NewRandomAccount()
		if err != nil {
			return err
		}
		if err := account.WriteKeypairFile(path); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), account.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().BoolVarP(&overwriteKeypair, "force", "f", false, "Overwrite an existing file.")
}
