package graph

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsense/internal/config"
	apierrors "sheetsense/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func graphTestConfig(authHost string) config.GraphConfig {
	return config.GraphConfig{
		TenantID:     "test-tenant",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthHost:     authHost,
		Scope:        "https://graph.microsoft.com/.default",
		Timeout:      5 * time.Second,
	}
}

func TestTokenCache_RefreshAndReuse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/test-tenant/oauth2/v2.0/token", r.URL.Path)
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "client-secret", r.Form.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Second call within the lifetime hits the cache.
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenCache_RefreshesInsideExpiryBuffer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)
	cache.now = func() time.Time { return now }

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// 3600s lifetime minus the 60s buffer: still valid one second before.
	now = now.Add(3540*time.Second - time.Second)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// At the buffered expiry the cached token is stale.
	now = now.Add(time.Second)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_DefaultLifetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No expires_in in the response.
		w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)
	cache.now = func() time.Time { return now }

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now.Add(3600*time.Second-expiryBuffer), cache.expiresAt)
}

func TestTokenCache_NotConfigured(t *testing.T) {
	cache := NewTokenCache(config.GraphConfig{}, discardLogger(), nil)

	_, err := cache.Token(context.Background())
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "AUTH_NOT_CONFIGURED", apiErr.ErrorCode)
}

func TestTokenCache_UpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client","error_description":"secret is wrong"}`))
	}))
	defer srv.Close()

	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)

	_, err := cache.Token(context.Background())
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UPSTREAM_ERROR", apiErr.ErrorCode)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	// Upstream bodies are logged, never surfaced.
	assert.NotContains(t, apiErr.Message, "secret is wrong")
}

func TestTokenCache_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in":3600}`))
	}))
	defer srv.Close()

	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)

	_, err := cache.Token(context.Background())
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UPSTREAM_ERROR", apiErr.ErrorCode)
}

func TestTokenCache_Invalidate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer srv.Close()

	cache := NewTokenCache(graphTestConfig(srv.URL), discardLogger(), nil)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	cache.Invalidate()

	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
