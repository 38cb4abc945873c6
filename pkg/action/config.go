package action

import (
	"github.com/lotterynft/lottery-client/pkg/config"
	"github.com/lotterynft/lottery-client/pkg/config/env"
	"github.com/lotterynft/lottery-client/pkg/config/memory"
	"github.com/lotterynft/lottery-client/pkg/config/wrapper"
)

const (
	envConfigPrefix = "ACTION_"

	// StoragePayeeConfigEnvName is the account paid for content storage.
	StoragePayeeConfigEnvName = envConfigPrefix + "STORAGE_PAYEE"
	defaultStoragePayee       = "HvwC9QSAzvGXhhVrgPmauVwFWcYZhne3hVot9EbHuFTm"

	// MetadataFileNameConfigEnvName is the name given to the generated
	// metadata file uploaded alongside NFT assets.
	MetadataFileNameConfigEnvName = envConfigPrefix + "METADATA_FILE_NAME"
	defaultMetadataFileName       = "metadata.json"
)

type conf struct {
	storagePayee     config.String
	metadataFileName config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			storagePayee:     env.NewStringConfig(StoragePayeeConfigEnvName, defaultStoragePayee),
			metadataFileName: env.NewStringConfig(MetadataFileNameConfigEnvName, defaultMetadataFileName),
		}
	}
}

type testOverrides struct {
	storagePayee string
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			storagePayee:     wrapper.NewStringConfig(memory.NewConfig(overrides.storagePayee), defaultStoragePayee),
			metadataFileName: wrapper.NewStringConfig(memory.NewConfig(defaultMetadataFileName), defaultMetadataFileName),
		}
	}
}
