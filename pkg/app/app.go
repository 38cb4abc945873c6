// Package app loads the command line configuration and wires the clients that
// commands run against.
package app

import (
	"context"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	xrate "golang.org/x/time/rate"

	"github.com/lotterynft/lottery-client/pkg/action"
	"github.com/lotterynft/lottery-client/pkg/currency"
	"github.com/lotterynft/lottery-client/pkg/currency/coingecko"
	"github.com/lotterynft/lottery-client/pkg/data"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/rate"
	"github.com/lotterynft/lottery-client/pkg/solana"
	"github.com/lotterynft/lottery-client/pkg/submission"
	"github.com/lotterynft/lottery-client/pkg/upload"
	"github.com/lotterynft/lottery-client/pkg/wallet"
)

// Env is the set of clients a command runs against.
type Env struct {
	Config  BaseConfig
	Metrics *newrelic.Application

	Programs data.Programs
	Data     *data.BlockchainProvider
	Actions  *action.Client
	Quoter   *upload.Quoter
}

// Load reads the configuration file at configPath, when it exists, and
// overlays environment variables on top of the defaults.
func Load(configPath string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if len(configPath) > 0 {
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
		} else if !os.IsNotExist(err) {
			return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
		}
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}

	environment, err := solana.ClusterEnvironment(config.Cluster)
	if err != nil {
		return BaseConfig{}, errors.Wrap(err, "cluster")
	}
	if len(config.RpcEndpoint) == 0 {
		config.RpcEndpoint = string(environment)
	}
	return config, nil
}

// Init configures logging and metrics, then builds the clients described by
// config.
func Init(config BaseConfig) (*Env, error) {
	// todo: Better abstraction so we're not directly tied to NR
	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to new relic")
		}

		metricsProvider = nr
	}

	configureLogger(config, metricsProvider)

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.RpcRateLimit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RpcRateLimit))
	}
	sc := solana.NewWithRPCOptions(config.RpcEndpoint, nil, limiter)

	env, err := NewEnv(config, sc)
	if err != nil {
		return nil, err
	}
	env.Metrics = metricsProvider
	return env, nil
}

// NewEnv builds the clients described by config on top of sc. Metrics are
// left disabled.
func NewEnv(config BaseConfig, sc solana.Client) (*Env, error) {
	programs, err := config.programs()
	if err != nil {
		return nil, err
	}

	dp := data.NewBlockchainProvider(sc, programs, data.WithEnvConfigs())
	submitter := submission.NewSubmitter(sc, submission.WithEnvConfigs())

	uploadConfig := upload.WithEndpoints(config.uploadEndpoint(), config.UploadPriceEndpoint, config.UploadGateway)
	quoter := upload.NewQuoter(uploadConfig, config.rates())

	actions := action.NewClient(dp, submitter, action.WithEnvConfigs()).
		WithStorage(upload.NewUploader(uploadConfig), quoter)

	return &Env{
		Config:   config,
		Programs: programs,
		Data:     dp,
		Actions:  actions,
		Quoter:   quoter,
	}, nil
}

// Context attaches the metrics provider to ctx.
func (e *Env) Context(ctx context.Context) context.Context {
	return metrics.WithApplication(ctx, e.Metrics)
}

// Wallet loads the configured keypair.
func (e *Env) Wallet() (*wallet.Account, error) {
	path, err := expandHome(e.Config.Keypair)
	if err != nil {
		return nil, err
	}
	return wallet.LoadKeypairFile(path)
}

// Shutdown flushes pending metrics.
func (e *Env) Shutdown() {
	if e.Metrics != nil {
		e.Metrics.Shutdown(e.Config.ShutdownGracePeriod)
	}
}

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: %d bytes", value, len(decoded))
	}
	return decoded, nil
}

func (c BaseConfig) programs() (data.Programs, error) {
	if len(c.StoreProgram) == 0 || len(c.LotteryProgram) == 0 {
		return data.Programs{}, errors.New("store_program and lottery_program must be configured")
	}

	store, err := ParsePublicKey(c.StoreProgram)
	if err != nil {
		return data.Programs{}, errors.Wrap(err, "store_program")
	}
	lottery, err := ParsePublicKey(c.LotteryProgram)
	if err != nil {
		return data.Programs{}, errors.Wrap(err, "lottery_program")
	}
	return data.Programs{Store: store, Lottery: lottery}, nil
}

func (c BaseConfig) uploadEndpoint() string {
	if len(c.UploadEndpoint) == 0 && c.Cluster == ClusterMainnet {
		return upload.MainnetEndpoint
	}
	return c.UploadEndpoint
}

func (c BaseConfig) rates() currency.Client {
	if len(c.CoinGeckoUrl) == 0 {
		return coingecko.NewClient()
	}
	return coingecko.NewClientWithBaseUrl(c.CoinGeckoUrl)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	// Command output goes to stdout.
	logrus.SetOutput(os.Stderr)
}
