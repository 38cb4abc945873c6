package data

import (
	"time"

	"github.com/lotterynft/lottery-client/pkg/config"
	"github.com/lotterynft/lottery-client/pkg/config/env"
	"github.com/lotterynft/lottery-client/pkg/config/memory"
	"github.com/lotterynft/lottery-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "DATA_"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	RentCacheTTLConfigEnvName = envConfigPrefix + "RENT_CACHE_TTL"
	defaultRentCacheTTL       = time.Hour

	WatchIntervalConfigEnvName = envConfigPrefix + "WATCH_INTERVAL"
	defaultWatchInterval       = 2 * time.Second
)

type conf struct {
	commitment    config.String
	rentCacheTTL  config.Duration
	watchInterval config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:    env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			rentCacheTTL:  env.NewDurationConfig(RentCacheTTLConfigEnvName, defaultRentCacheTTL),
			watchInterval: env.NewDurationConfig(WatchIntervalConfigEnvName, defaultWatchInterval),
		}
	}
}

type testOverrides struct {
	watchInterval time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:    wrapper.NewStringConfig(memory.NewConfig(defaultCommitment), defaultCommitment),
			rentCacheTTL:  wrapper.NewDurationConfig(memory.NewConfig(defaultRentCacheTTL), defaultRentCacheTTL),
			watchInterval: wrapper.NewDurationConfig(memory.NewConfig(overrides.watchInterval), defaultWatchInterval),
		}
	}
}
