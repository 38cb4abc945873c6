// Package wrapper converts untyped config sources into typed values with
// defaults.
package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

type parseFunc[T any] func(value interface{}) (T, error)

// valueConfig is the typed wrapper shared by every value type. Sources yield
// either the typed value or, for env backed configs, raw bytes.
type valueConfig[T any] struct {
	override     config.Config
	defaultValue T
	parse        parseFunc[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newValueConfig[T any](override config.Config, defaultValue T, parse parseFunc[T]) *valueConfig[T] {
	return &valueConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newValueConfig(override, defaultValue, func(value interface{}) (string, error) {
		switch value := value.(type) {
		case []byte:
			return string(value), nil
		case string:
			return value, nil
		}
		return "", ErrUnsuportedConversion
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newValueConfig(override, defaultValue, func(value interface{}) (uint64, error) {
		switch value := value.(type) {
		case []byte:
			return strconv.ParseUint(string(value), 10, 64)
		case uint64:
			return value, nil
		case uint:
			return uint64(value), nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// NewDurationConfig returns a new duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newValueConfig(override, defaultValue, func(value interface{}) (time.Duration, error) {
		switch value := value.(type) {
		case []byte:
			return time.ParseDuration(string(value))
		case time.Duration:
			return value, nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *valueConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if err == config.ErrNoValue {
		c.lastValue = c.defaultValue
		return c.defaultValue, nil
	} else if err != nil {
		return c.lastValue, err
	}

	value, err := c.parse(override)
	if err != nil {
		return c.lastValue, err
	}
	c.lastValue = value
	return value, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *valueConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *valueConfig[T]) Shutdown() {
	c.override.Shutdown()
}
