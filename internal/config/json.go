package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of the client config.
type StructuredJSONConfig struct {
	App struct {
		Login        string `json:"login"`
		Password     string `json:"password"`
		KeySalt      string `json:"key_salt"`
		SessionToken string `json:"session_token"`
		LogLevel     string `json:"log_level"`
	} `json:"app,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`

	Sync struct {
		MaxConcurrent  int      `json:"max_concurrent"`
		PageLimit      int      `json:"page_limit"`
		RetryAttempts  int      `json:"retry_attempts"`
		RetryBaseDelay Duration `json:"retry_base_delay"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Login:        jsonCfg.App.Login,
			Password:     jsonCfg.App.Password,
			KeySalt:      jsonCfg.App.KeySalt,
			SessionToken: jsonCfg.App.SessionToken,
			LogLevel:     jsonCfg.App.LogLevel,
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Workers: Workers{
			SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval),
		},
		Sync: Sync{
			MaxConcurrent:  jsonCfg.Sync.MaxConcurrent,
			PageLimit:      jsonCfg.Sync.PageLimit,
			RetryAttempts:  jsonCfg.Sync.RetryAttempts,
			RetryBaseDelay: time.Duration(jsonCfg.Sync.RetryBaseDelay),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
