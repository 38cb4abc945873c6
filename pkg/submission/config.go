package submission

import (
	"context"
	"math"
	"time"

	"github.com/lotterynft/lottery-client/pkg/config"
	"github.com/lotterynft/lottery-client/pkg/config/env"
	"github.com/lotterynft/lottery-client/pkg/config/memory"
	"github.com/lotterynft/lottery-client/pkg/config/wrapper"
	"github.com/lotterynft/lottery-client/pkg/solana"
)

const (
	envConfigPrefix = "SUBMISSION_"

	MaxAttemptsConfigEnvName = envConfigPrefix + "MAX_ATTEMPTS"
	defaultMaxAttempts       = 3

	MaxSendRetriesConfigEnvName = envConfigPrefix + "MAX_SEND_RETRIES"
	defaultMaxSendRetries       = 3

	SendBackoffConfigEnvName = envConfigPrefix + "SEND_BACKOFF"
	defaultSendBackoff       = 500 * time.Millisecond

	PollIntervalConfigEnvName = envConfigPrefix + "POLL_INTERVAL"
	defaultPollInterval       = solana.PollRate

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "single"

	// Compute unit price in micro-lamports. Zero sends no priority fee.
	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0

	// Zero leaves the runtime's default limit in place.
	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 0
)

type conf struct {
	maxAttempts    config.Uint64
	maxSendRetries config.Uint64
	sendBackoff    config.Duration
	pollInterval   config.Duration
	commitment     config.String

	computeUnitPrice config.Uint64
	computeUnitLimit config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxAttempts:    env.NewUint64Config(MaxAttemptsConfigEnvName, defaultMaxAttempts),
			maxSendRetries: env.NewUint64Config(MaxSendRetriesConfigEnvName, defaultMaxSendRetries),
			sendBackoff:    env.NewDurationConfig(SendBackoffConfigEnvName, defaultSendBackoff),
			pollInterval:   env.NewDurationConfig(PollIntervalConfigEnvName, defaultPollInterval),
			commitment:     env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),

			computeUnitPrice: env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
			computeUnitLimit: env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
		}
	}
}

type testOverrides struct {
	maxAttempts    uint64
	maxSendRetries uint64
	pollInterval   time.Duration
	commitment     string

	computeUnitPrice uint64
	computeUnitLimit uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		if overrides.commitment == "" {
			overrides.commitment = defaultCommitment
		}

		return &conf{
			maxAttempts:    wrapper.NewUint64Config(memory.NewConfig(overrides.maxAttempts), defaultMaxAttempts),
			maxSendRetries: wrapper.NewUint64Config(memory.NewConfig(overrides.maxSendRetries), defaultMaxSendRetries),
			sendBackoff:    wrapper.NewDurationConfig(memory.NewConfig(time.Millisecond), defaultSendBackoff),
			pollInterval:   wrapper.NewDurationConfig(memory.NewConfig(overrides.pollInterval), defaultPollInterval),
			commitment:     wrapper.NewStringConfig(memory.NewConfig(overrides.commitment), defaultCommitment),

			computeUnitPrice: wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
			computeUnitLimit: wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitLimit), defaultComputeUnitLimit),
		}
	}
}

// ParseCommitment accepts the current commitment names as well as the
// deprecated aliases still used by older clients.
func ParseCommitment(value string) (solana.Commitment, error) {
	switch value {
	case "recent":
		return solana.CommitmentProcessed, nil
	case "single", "singleGossip":
		return solana.CommitmentConfirmed, nil
	case "root", "max":
		return solana.CommitmentFinalized, nil
	}
	return solana.CommitmentFromString(value)
}

func (c *conf) commitmentLevel(ctx context.Context) solana.Commitment {
	commitment, err := ParseCommitment(c.commitment.Get(ctx))
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}

func (c *conf) unitLimit(ctx context.Context) uint32 {
	limit := c.computeUnitLimit.Get(ctx)
	if limit > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(limit)
}
