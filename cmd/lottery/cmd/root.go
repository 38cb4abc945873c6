// Package cmd contains the lottery command line client.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lotterynft/lottery-client/pkg/app"
)

var (
	configPath  string
	keypairPath string
	rpcEndpoint string

	env *app.Env

	// initEnv builds env once the configuration is loaded.
	initEnv = app.Init
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file.")
	rootCmd.PersistentFlags().StringVarP(&keypairPath, "keypair", "k", "", "Path to the keypair file, overriding the configured one.")
	rootCmd.PersistentFlags().StringVarP(&rpcEndpoint, "url", "u", "", "RPC endpoint, overriding the configured one.")
}

var rootCmd = &cobra.Command{
	Use:          "lottery",
	Short:        "Manage NFT stores and lotteries",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := app.Load(configPath)
		if err != nil {
			return err
		}
		if len(keypairPath) > 0 {
			config.Keypair = keypairPath
		}
		if len(rpcEndpoint) > 0 {
			config.RpcEndpoint = rpcEndpoint
		}

		env, err = initEnv(config)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if env != nil {
			env.Shutdown()
		}
	},
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		logrus.StandardLogger().WithField("type", "cmd/lottery").WithError(err).Debug("command failed")
		os.Exit(1)
	}
}

// commandContext returns the command context carrying the metrics provider.
func commandContext(cmd *cobra.Command) context.Context {
	return env.Context(cmd.Context())
}
