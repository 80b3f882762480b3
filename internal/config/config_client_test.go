package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStructured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			Login:        "alice",
			Password:     "pw",
			KeySalt:      "c2FsdA==",
			SessionToken: "tok",
		},
		Adapter: Adapter{HTTPAddress: "https://sync.example"},
		Storage: Storage{DB: DB{DSN: "cache.db"}},
	}
}

func TestNewClientConfig_AppliesDefaults(t *testing.T) {
	cfg := newClientConfig(validStructured())

	assert.Equal(t, DefaultRequestTimeout, cfg.Adapter.RequestTimeout)
	assert.Equal(t, DefaultSyncInterval, cfg.Workers.SyncInterval)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Sync.MaxConcurrent)
	assert.Equal(t, DefaultPageLimit, cfg.Sync.PageLimit)
	assert.Equal(t, DefaultRetryAttempts, cfg.Sync.RetryAttempts)
	assert.Equal(t, DefaultRetryBaseDelay, cfg.Sync.RetryBaseDelay)
	require.NoError(t, cfg.validate())
}

func TestNewClientConfig_NegativeRetriesDisableRetry(t *testing.T) {
	sc := validStructured()
	sc.Sync.RetryAttempts = -1

	cfg := newClientConfig(sc)
	assert.Equal(t, 0, cfg.Sync.RetryAttempts)
}

func TestNewClientConfig_KeepsExplicitValues(t *testing.T) {
	sc := validStructured()
	sc.Adapter.RequestTimeout = time.Second
	sc.Sync.PageLimit = 7

	cfg := newClientConfig(sc)
	assert.Equal(t, time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 7, cfg.Sync.PageLimit)
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ClientConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(c *ClientConfig) {}},
		{name: "no dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = "" }, wantErr: ErrInvalidStorageConfigs},
		{name: "no address", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "no interval", mutate: func(c *ClientConfig) { c.Workers.SyncInterval = 0 }, wantErr: ErrInvalidWorkerConfigs},
		{name: "no login", mutate: func(c *ClientConfig) { c.App.Login = "" }, wantErr: ErrInvalidAppConfigs},
		{name: "no token", mutate: func(c *ClientConfig) { c.App.SessionToken = "" }, wantErr: ErrInvalidAppConfigs},
		{name: "zero page", mutate: func(c *ClientConfig) { c.Sync.PageLimit = 0 }, wantErr: ErrInvalidSyncConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newClientConfig(validStructured())
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
