// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks the merged [StructuredConfig]. Source-level values may be
// partial, so only contradictions are rejected here.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.MaxConcurrent < 0 || cfg.Sync.PageLimit < 0 {
		return ErrInvalidSyncConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.Login == "" || cfg.App.SessionToken == "" || cfg.App.Password == "" || cfg.App.KeySalt == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Sync.MaxConcurrent <= 0 || cfg.Sync.PageLimit <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
