package upload

import (
	"github.com/lotterynft/lottery-client/pkg/config"
	"github.com/lotterynft/lottery-client/pkg/config/env"
	"github.com/lotterynft/lottery-client/pkg/config/memory"
	"github.com/lotterynft/lottery-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "UPLOAD_"

	EndpointConfigEnvName = envConfigPrefix + "ENDPOINT"
	defaultEndpoint       = "https://us-central1-principal-lane-200702.cloudfunctions.net/uploadFile2"

	// MainnetEndpoint is the upload function used with mainnet payments.
	MainnetEndpoint = "https://us-central1-principal-lane-200702.cloudfunctions.net/uploadFileProd2"

	PriceEndpointConfigEnvName = envConfigPrefix + "PRICE_ENDPOINT"
	defaultPriceEndpoint       = "https://arweave.net/price/"

	GatewayConfigEnvName = envConfigPrefix + "GATEWAY"
	defaultGateway       = "https://arweave.net/"
)

type conf struct {
	endpoint      config.String
	priceEndpoint config.String
	gateway       config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:      env.NewStringConfig(EndpointConfigEnvName, defaultEndpoint),
			priceEndpoint: env.NewStringConfig(PriceEndpointConfigEnvName, defaultPriceEndpoint),
			gateway:       env.NewStringConfig(GatewayConfigEnvName, defaultGateway),
		}
	}
}

// WithEndpoints returns a fixed configuration, as used by the CLI once
// endpoints have been resolved from its own config. Empty values fall back to
// the defaults.
func WithEndpoints(endpoint, priceEndpoint, gateway string) ConfigProvider {
	return func() *conf {
		return &conf{
			endpoint:      wrapper.NewStringConfig(fixedString(endpoint), defaultEndpoint),
			priceEndpoint: wrapper.NewStringConfig(fixedString(priceEndpoint), defaultPriceEndpoint),
			gateway:       wrapper.NewStringConfig(fixedString(gateway), defaultGateway),
		}
	}
}

func fixedString(value string) config.Config {
	if len(value) == 0 {
		return memory.NewConfig(nil)
	}
	return memory.NewConfig(value)
}
