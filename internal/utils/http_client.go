package utils

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// TraceIDHeader carries the sync pass ID so server logs can be correlated
	// with the client's.
	TraceIDHeader = "X-Trace-ID"

	userAgent = "go-note-sync"
)

// HTTPClient is a resty.Client preconfigured for the remote authority's JSON
// API. It embeds *resty.Client to expose all of its methods directly.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client rooted at baseURL. A non-positive timeout
// leaves requests bounded only by their context.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPClient{Client: client}
}

// Request starts a request bound to ctx. A non-empty token is sent as a
// bearer token and the pass ID found in ctx, if any, as [TraceIDHeader].
func (c *HTTPClient) Request(ctx context.Context, token string) *resty.Request {
	req := c.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if passID, ok := GetPassIDFromContext(ctx); ok {
		req.SetHeader(TraceIDHeader, passID)
	}
	return req
}
