package app

import (
	"time"

	"github.com/spf13/viper"
)

// BaseConfig contains the configuration shared by every command, as well as
// the application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// Cluster selects cluster specific defaults, such as the upload function
	// that accepts payments on that cluster.
	Cluster string `mapstructure:"cluster"`

	// RpcEndpoint defaults to the public endpoint of Cluster.
	RpcEndpoint string `mapstructure:"rpc_endpoint"`
	// RpcRateLimit is the number of requests per second allowed for each RPC
	// method. Zero disables limiting.
	RpcRateLimit float64 `mapstructure:"rpc_rate_limit"`

	StoreProgram   string `mapstructure:"store_program"`
	LotteryProgram string `mapstructure:"lottery_program"`

	// Keypair is the path to a keypair file in the Solana CLI format.
	Keypair string `mapstructure:"keypair"`

	UploadEndpoint      string `mapstructure:"upload_endpoint"`
	UploadPriceEndpoint string `mapstructure:"upload_price_endpoint"`
	UploadGateway       string `mapstructure:"upload_gateway"`
	CoinGeckoUrl        string `mapstructure:"coingecko_url"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

const (
	ClusterDevnet  = "devnet"
	ClusterTestnet = "testnet"
	ClusterMainnet = "mainnet-beta"
)

var defaultConfig = BaseConfig{
	LogLevel: "warn",

	AppName: "lottery-cli",

	Cluster: ClusterDevnet,

	Keypair: "~/.config/solana/id.json",

	ShutdownGracePeriod: 5 * time.Second,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("cluster", "SOLANA_CLUSTER")
	_ = viper.BindEnv("rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("rpc_rate_limit", "SOLANA_RPC_RATE_LIMIT")

	_ = viper.BindEnv("store_program", "STORE_PROGRAM")
	_ = viper.BindEnv("lottery_program", "LOTTERY_PROGRAM")

	_ = viper.BindEnv("keypair", "KEYPAIR")

	_ = viper.BindEnv("upload_endpoint", "UPLOAD_ENDPOINT")
	_ = viper.BindEnv("upload_price_endpoint", "UPLOAD_PRICE_ENDPOINT")
	_ = viper.BindEnv("upload_gateway", "UPLOAD_GATEWAY")
	_ = viper.BindEnv("coingecko_url", "COINGECKO_URL")

	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
