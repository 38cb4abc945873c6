package solana

import "github.com/pkg/errors"

// Environment is the public RPC endpoint of a cluster.
type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// ClusterEnvironment returns the public endpoint of the named cluster, using
// the Solana CLI cluster names.
func ClusterEnvironment(cluster string) (Environment, error) {
	switch cluster {
	case "devnet":
		return EnvironmentDev, nil
	case "testnet":
		return EnvironmentTest, nil
	case "mainnet-beta":
		return EnvironmentProd, nil
	}
	return "", errors.Errorf("unknown cluster: %q", cluster)
}
