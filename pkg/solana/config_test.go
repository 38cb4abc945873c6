package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterEnvironment(t *testing.T) {
	for cluster, expected := range map[string]Environment{
		"devnet":       EnvironmentDev,
		"testnet":      EnvironmentTest,
		"mainnet-beta": EnvironmentProd,
	} {
		actual, err := ClusterEnvironment(cluster)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	_, err := ClusterEnvironment("localnet")
	assert.Error(t, err)
}
