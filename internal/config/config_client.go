// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// Defaults applied to the client view when a source leaves a field empty.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultMaxConcurrent  = 4
	DefaultPageLimit      = 100
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// ClientApp holds account settings used at login.
type ClientApp struct {
	Login        string
	Password     string
	KeySalt      string
	SessionToken string
	LogLevel     string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint of the remote authority.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings.
type ClientDB struct {
	// DSN is the sqlite connection string.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the sync worker submits a pass.
	SyncInterval time.Duration
}

// ClientSync tunes the sync engine.
type ClientSync struct {
	MaxConcurrent  int
	PageLimit      int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	Sync    ClientSync
}

// GetClientConfig builds and validates the client view of the merged
// structured configuration. args are the command-line arguments without the
// program name.
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := newClientConfig(cfg)

	return clientCfg, clientCfg.validate()
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	clientCfg := &ClientConfig{
		App: ClientApp{
			Login:        cfg.App.Login,
			Password:     cfg.App.Password,
			KeySalt:      cfg.App.KeySalt,
			SessionToken: cfg.App.SessionToken,
			LogLevel:     cfg.App.LogLevel,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Workers: ClientWorkers{SyncInterval: cfg.Workers.SyncInterval},
		Sync: ClientSync{
			MaxConcurrent:  cfg.Sync.MaxConcurrent,
			PageLimit:      cfg.Sync.PageLimit,
			RetryAttempts:  cfg.Sync.RetryAttempts,
			RetryBaseDelay: cfg.Sync.RetryBaseDelay,
		},
	}
	clientCfg.applyDefaults()

	return clientCfg
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Adapter.RequestTimeout <= 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Workers.SyncInterval <= 0 {
		cfg.Workers.SyncInterval = DefaultSyncInterval
	}
	if cfg.Sync.MaxConcurrent <= 0 {
		cfg.Sync.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Sync.PageLimit <= 0 {
		cfg.Sync.PageLimit = DefaultPageLimit
	}
	if cfg.Sync.RetryAttempts < 0 {
		cfg.Sync.RetryAttempts = 0
	} else if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.Sync.RetryBaseDelay <= 0 {
		cfg.Sync.RetryBaseDelay = DefaultRetryBaseDelay
	}
}
