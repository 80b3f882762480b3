// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the sync
// client. It is populated by merging values from environment variables,
// command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix - prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       - direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds account credentials and logging settings.
	App App `envPrefix:"APP_"`

	// Adapter holds the remote authority address and request timeout.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds the local cache database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// Sync tunes the sync engine.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds account-level settings.
type App struct {
	// Login is the account name.
	// Env: APP_LOGIN
	Login string `env:"LOGIN"`

	// Password is the master password the account key is derived from.
	// Env: APP_PASSWORD
	Password string `env:"PASSWORD"`

	// KeySalt is the base64 salt for account key derivation.
	// Env: APP_KEY_SALT
	KeySalt string `env:"KEY_SALT"`

	// SessionToken is the bearer token issued by the remote authority.
	// Env: APP_SESSION_TOKEN
	SessionToken string `env:"SESSION_TOKEN"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`
}

// Adapter holds settings of the outbound transport to the remote authority.
type Adapter struct {
	// HTTPAddress is the base URL or host:port of the remote authority.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request (e.g. "30s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration of the local cache.
type Storage struct {
	// DB holds the sqlite connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local sqlite cache.
type DB struct {
	// DSN is the sqlite file path or URI.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval is the period of the background sync worker.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// Sync tunes the sync engine.
type Sync struct {
	// MaxConcurrent bounds how many collections reconcile in parallel.
	// Env: SYNC_MAX_CONCURRENT
	MaxConcurrent int `env:"MAX_CONCURRENT"`

	// PageLimit is the page size requested from the change log.
	// Env: SYNC_PAGE_LIMIT
	PageLimit int `env:"PAGE_LIMIT"`

	// RetryAttempts is how many times a RemoteUnavailable page fetch is
	// retried before the collection is reported as failed.
	// Env: SYNC_RETRY_ATTEMPTS
	RetryAttempts int `env:"RETRY_ATTEMPTS"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	// Env: SYNC_RETRY_BASE_DELAY
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY"`
}

// GetStructuredConfig loads, merges, and validates the configuration from all
// available sources in the following priority order (first non-zero value
// wins, later sources fill gaps):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
