package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/internal/utils"
	"github.com/MKhiriev/go-note-sync/models"
	"github.com/go-resty/resty/v2"
)

type listCollectionsResponse struct {
	Collections []models.RemoteCollection `json:"collections"`
}

type httpRemoteStore struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPRemoteStore constructs an HTTP/REST implementation of [RemoteStore].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and request
// timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteStore(adapterCfg config.ClientAdapter, logger *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)
	return &httpRemoteStore{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [RemoteStore]. Safe for concurrent use with in-flight
// requests.
func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [RemoteStore].
func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// ListCollections implements [RemoteStore] via GET /api/v1/collections.
func (h *httpRemoteStore) ListCollections(ctx context.Context) ([]models.RemoteCollection, error) {
	resp, err := h.authedRequest(ctx).Get("/api/v1/collections")
	if err != nil {
		return nil, mapTransportError("list collections request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var lr listCollectionsResponse
	if err = json.Unmarshal(resp.Body(), &lr); err != nil {
		return nil, fmt.Errorf("%w: decode collections: %v", ErrMalformedResponse, err)
	}
	return lr.Collections, nil
}

// FetchPage implements [RemoteStore] via
// GET /api/v1/collections/{uid}/changes?stoken=&limit=.
func (h *httpRemoteStore) FetchPage(ctx context.Context, collectionUID, checkpoint string, limit int) (models.EncryptedBatch, error) {
	log := h.logger.WithCollection(collectionUID)

	req := h.authedRequest(ctx).SetPathParam("uid", collectionUID)
	if checkpoint != "" {
		req.SetQueryParam("stoken", checkpoint)
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	resp, err := req.Get("/api/v1/collections/{uid}/changes")
	if err != nil {
		return models.EncryptedBatch{}, mapTransportError("fetch changes request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		log.Debug().Str("func", "httpRemoteStore.FetchPage").Int("status", resp.StatusCode()).Err(err).Msg("change log request rejected")
		return models.EncryptedBatch{}, err
	}

	var batch models.EncryptedBatch
	if err = json.Unmarshal(resp.Body(), &batch); err != nil {
		return models.EncryptedBatch{}, fmt.Errorf("%w: decode changes: %v", ErrMalformedResponse, err)
	}
	if batch.CollectionUID == "" {
		batch.CollectionUID = collectionUID
	}
	if batch.CollectionUID != collectionUID {
		return models.EncryptedBatch{}, fmt.Errorf("%w: page of %s returned for %s", ErrMalformedResponse, batch.CollectionUID, collectionUID)
	}
	for _, ch := range batch.Changes {
		if !ch.Action.Valid() || ch.ItemUID == "" {
			return models.EncryptedBatch{}, fmt.Errorf("%w: change %q with action %q", ErrMalformedResponse, ch.ItemUID, ch.Action)
		}
	}

	log.Debug().
		Str("func", "httpRemoteStore.FetchPage").
		Str("checkpoint", checkpoint).
		Str("next_checkpoint", batch.Checkpoint).
		Int("changes", len(batch.Changes)).
		Bool("done", batch.Done).
		Msg("fetched change log page")

	return batch, nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	return h.client.Request(ctx, h.Token())
}
