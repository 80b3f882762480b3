package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_Configuration(t *testing.T) {
	client := NewHTTPClient("http://remote.example", 3*time.Second)
	require.NotNil(t, client.Client)

	assert.Equal(t, "http://remote.example", client.BaseURL)
	assert.Equal(t, 3*time.Second, client.GetClient().Timeout)
	assert.Equal(t, "application/json", client.Header.Get("Accept"))
	assert.Equal(t, userAgent, client.Header.Get("User-Agent"))
}

func TestNewHTTPClient_ZeroTimeoutIsUnbounded(t *testing.T) {
	client := NewHTTPClient("http://remote.example", 0)
	assert.Zero(t, client.GetClient().Timeout)
}

func TestNewHTTPClient_Independence(t *testing.T) {
	client1 := NewHTTPClient("http://a.example", 0)
	client2 := NewHTTPClient("http://b.example", 0)

	assert.NotSame(t, client1.Client, client2.Client)
}

func TestHTTPClient_Request(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)

	t.Run("token and pass id", func(t *testing.T) {
		ctx := WithPassID(context.Background(), "pass-1")
		_, err := client.Request(ctx, "tok").Get("/ping")
		require.NoError(t, err)

		assert.Equal(t, "Bearer tok", got.Get("Authorization"))
		assert.Equal(t, "pass-1", got.Get(TraceIDHeader))
		assert.Equal(t, userAgent, got.Get("User-Agent"))
	})

	t.Run("anonymous without pass id", func(t *testing.T) {
		_, err := client.Request(context.Background(), "").Get("/ping")
		require.NoError(t, err)

		assert.Empty(t, got.Get("Authorization"))
		assert.Empty(t, got.Get(TraceIDHeader))
	})

	t.Run("request is bound to ctx", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Request(ctx, "tok").Get("/ping")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
