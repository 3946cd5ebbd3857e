// Package graph is a minimal Microsoft Graph client for the SharePoint
// drive surface this service needs: listing sites, drives and files, and
// downloading drive items for analysis. Authentication uses the OAuth2
// client-credentials flow with an in-memory token cache.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sheetsense/internal/config"
	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/infrastructure"
)

// expiryBuffer is subtracted from the token lifetime so a token is refreshed
// before it can expire mid-request.
const expiryBuffer = 60 * time.Second

// TokenCache caches the client-credentials access token and refreshes it on
// expiry. Safe for concurrent use.
type TokenCache struct {
	cfg     config.GraphConfig
	client  *http.Client
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	// now is swappable for tests.
	now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenCache creates a token cache for the configured tenant. metrics may
// be nil.
func NewTokenCache(cfg config.GraphConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *TokenCache {
	return &TokenCache{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(slog.String("component", "graph_token_cache")),
		metrics: metrics,
		now:     time.Now,
	}
}

// Token returns a valid access token, refreshing from the identity provider
// when the cached one is missing or within the expiry buffer.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if !c.cfg.Configured() {
		return "", apierrors.ErrAuthNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	return c.refreshLocked(ctx)
}

// refreshLocked fetches a new token. Caller must hold c.mu.
func (c *TokenCache) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {c.cfg.Scope},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "token request failed", slog.String("error", err.Error()))
		return "", apierrors.UpstreamError("authentication")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		c.logger.ErrorContext(ctx, "token request rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return "", apierrors.UpstreamError("authentication")
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.ErrorContext(ctx, "token response unparseable", slog.String("error", err.Error()))
		return "", apierrors.UpstreamError("authentication")
	}
	if payload.AccessToken == "" {
		c.logger.ErrorContext(ctx, "token response missing access_token")
		return "", apierrors.UpstreamError("authentication")
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	lifetime := time.Duration(expiresIn)*time.Second - expiryBuffer
	if lifetime < 0 {
		lifetime = 0
	}

	c.token = payload.AccessToken
	c.expiresAt = c.now().Add(lifetime)

	if c.metrics != nil {
		c.metrics.TokenRefreshesTotal.Add(ctx, 1)
	}

	c.logger.InfoContext(ctx, "access token refreshed",
		slog.Time("expires_at", c.expiresAt))

	return c.token, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
