package client

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/adapter"
	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/internal/service"
	"github.com/MKhiriev/go-note-sync/internal/store"
	"github.com/MKhiriev/go-note-sync/internal/utils"
	"github.com/MKhiriev/go-note-sync/internal/workers"
	"github.com/MKhiriev/go-note-sync/models"
)

// App is one client process.
type App struct {
	cfg      *config.ClientConfig
	codec    crypto.Codec
	storages *store.ClientStorages
	sessions *service.Sessions
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp builds the client. ctx bounds the lifetime of every session the app
// opens.
func NewApp(ctx context.Context, cfg *config.ClientConfig, logger *logger.Logger) (*App, error) {
	remote, err := adapter.NewHTTPRemoteStore(cfg.Adapter, logger)
	if err != nil {
		return nil, fmt.Errorf("create remote adapter: %w", err)
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	app := &App{
		cfg:      cfg,
		codec:    crypto.NewCodec(),
		storages: storages,
		logger:   logger,
	}

	app.sessions, err = service.NewSessions(ctx, service.Dependencies{
		Remote:  remote,
		Fetcher: adapter.NewChangeFetcher(remote, cfg.Sync, logger),
		Codec:   app.codec,
		Caches:  app.openCache,
		IDs:     utils.NewUUIDGenerator(),
		Sync:    cfg.Sync,
	}, logger)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create sessions: %w", err)
	}

	app.workers = workers.NewWorkers(workers.NewSyncWorker(app.sessions, cfg.Workers, logger))

	return app, nil
}

// openCache hydrates the durable cache of owner.
func (a *App) openCache(ctx context.Context, owner string) (service.Cache, error) {
	persister, err := a.storages.Persister(owner)
	if err != nil {
		return nil, err
	}

	cache := store.NewLocalCache(persister, a.logger)
	if err := cache.Load(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

// Run logs in, syncs and keeps syncing until ctx is done, then logs out.
func (a *App) Run(ctx context.Context) error {
	defer a.storages.Close()

	creds, err := LoginCredentials(a.cfg.App, a.codec, time.Now())
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m, err := a.sessions.Manager(ctx, creds)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer a.sessions.Logout()

	statuses, unsubscribe := m.Subscribe()
	defer unsubscribe()

	res, err := m.Sync(ctx)
	if err != nil {
		// The hydrated cache stays usable; the worker retries.
		a.logger.Warn().Err(err).Str("func", "App.Run").Msg("initial sync failed")
	} else {
		a.logCollections(m.Cache(), res)
	}

	a.workers.Start(ctx)
	defer a.workers.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Str("func", "App.Run").Msg("shutting down")
			return nil
		case st, ok := <-statuses:
			if !ok {
				return nil
			}
			a.logger.Debug().
				Str("func", "App.Run").
				Bool("running", st.Running).
				Bool("gate_open", st.GateOpen).
				Msg("sync status")
		}
	}
}

func (a *App) logCollections(cache service.Cache, res models.SyncResult) {
	for _, col := range cache.Collections() {
		a.logger.Info().
			Str("func", "App.Run").
			Str("pass_id", res.ID).
			Str("collection_uid", col.UID).
			Str("name", col.Meta.Name()).
			Int("items", len(cache.List(col.UID))).
			Int("conflicts", len(cache.Conflicts(col.UID))).
			Msg("collection ready")
	}
}
