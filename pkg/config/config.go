// Package config provides typed configuration values backed by pluggable
// sources such as environment variables or memory.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Value is a typed view of a Config.
type Value[T any] interface {
	// Get returns the current value, falling back to the last known or
	// default value on error.
	Get(ctx context.Context) T
	// GetSafe is Get that also reports the error.
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	String   = Value[string]
	Uint64   = Value[uint64]
	Duration = Value[time.Duration]
)
