package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lotterynft/lottery-client/pkg/config"
)

func TestConfig(t *testing.T) {
	const key = "ENV_CONFIG_TEST_VAR"

	t.Setenv(key, "default")
	v, err := NewConfig(key).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.NoError(t, err)

	t.Setenv(key, "")
	v, err = NewConfig(key).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_UINT", "12")
	t.Setenv("ENV_CONFIG_TEST_DURATION", "250ms")

	assert.EqualValues(t, 12, NewUint64Config("ENV_CONFIG_TEST_UINT", 3).Get(ctx))
	assert.Equal(t, 250*time.Millisecond, NewDurationConfig("env_config_test_duration", time.Second).Get(ctx))
	assert.Equal(t, "fallback", NewStringConfig("ENV_CONFIG_TEST_MISSING", "fallback").Get(ctx))
}
