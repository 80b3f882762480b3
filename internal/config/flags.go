package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// ParseFlags parses the client flags from args (program name excluded).
//
// Flags:
//
//	-a remote authority address (URL or host:port)
//	-d sqlite DSN of the local cache
//	-c/-config json file path with configs
//	-login account login
//	-session-token bearer token
//	-key-salt base64 account key salt
//	-log-level zerolog level
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-interval background sync period (e.g., "5m")
//	-max-concurrent collections reconciled in parallel
//	-page-limit change-log page size
//	-retry-attempts retries of an unavailable remote per page
//	-retry-base-delay first retry backoff (e.g., "500ms")
//
// The master password is intentionally not accepted as a flag; use
// APP_PASSWORD or the JSON file.
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("go-note-sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		address        string
		dsn            string
		jsonConfigPath string
		login          string
		sessionToken   string
		keySalt        string
		logLevel       string
		requestTimeout time.Duration
		syncInterval   time.Duration
		maxConcurrent  int
		pageLimit      int
		retryAttempts  int
		retryBaseDelay time.Duration
	)

	fs.StringVar(&address, "a", "", "Remote authority address")
	fs.StringVar(&dsn, "d", "", "Local cache sqlite DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&login, "login", "", "Account login")
	fs.StringVar(&sessionToken, "session-token", "", "Session bearer token")
	fs.StringVar(&keySalt, "key-salt", "", "Base64 account key salt")
	fs.StringVar(&logLevel, "log-level", "", "Log level")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	fs.IntVar(&maxConcurrent, "max-concurrent", 0, "Collections reconciled in parallel")
	fs.IntVar(&pageLimit, "page-limit", 0, "Change-log page size")
	fs.IntVar(&retryAttempts, "retry-attempts", 0, "Retries of an unavailable remote per page")
	fs.DurationVar(&retryBaseDelay, "retry-base-delay", 0, "First retry backoff (e.g., 500ms)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			Login:        login,
			SessionToken: sessionToken,
			KeySalt:      keySalt,
			LogLevel:     logLevel,
		},
		Adapter: Adapter{
			HTTPAddress:    address,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{DSN: dsn},
		},
		Workers: Workers{SyncInterval: syncInterval},
		Sync: Sync{
			MaxConcurrent:  maxConcurrent,
			PageLimit:      pageLimit,
			RetryAttempts:  retryAttempts,
			RetryBaseDelay: retryBaseDelay,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}
