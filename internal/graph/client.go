package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sheetsense/internal/config"
	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/infrastructure"
)

// idPattern is deliberately lenient: Graph IDs are not strict GUIDs, they
// mix base64-ish segments with punctuation.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9\-_!.:]+$`)

// ValidateID checks a path identifier before it is interpolated into a Graph
// URL. name is the parameter name used in the error message.
func ValidateID(value, name string) error {
	if value == "" {
		return nil
	}
	if !idPattern.MatchString(value) {
		return apierrors.ErrValidation(name, fmt.Sprintf("invalid %s", name))
	}
	return nil
}

// Client calls the Microsoft Graph drive API. List responses are passed
// through as raw Graph items; this service does not reshape the upstream
// metadata.
type Client struct {
	cfg     config.GraphConfig
	http    *http.Client
	tokens  *TokenCache
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewClient creates a Graph client. metrics may be nil.
func NewClient(cfg config.GraphConfig, tokens *TokenCache, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		logger:  logger.With(slog.String("component", "graph_client")),
		metrics: metrics,
	}
}

// Configured reports whether the upstream credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// SiteAllowed enforces the configured site allow-list. An empty list allows
// every site.
func (c *Client) SiteAllowed(siteID string) error {
	if siteID == "" || len(c.cfg.AllowedSiteIDs) == 0 {
		return nil
	}
	for _, allowed := range c.cfg.AllowedSiteIDs {
		if allowed == siteID {
			return nil
		}
	}
	return apierrors.ErrSiteNotAllowed
}

// ApplyDefaults fills missing site and drive IDs from configuration.
func (c *Client) ApplyDefaults(siteID, driveID string) (string, string) {
	if siteID == "" {
		siteID = c.cfg.DefaultSiteID
	}
	if driveID == "" {
		driveID = c.cfg.DefaultDriveID
	}
	return siteID, driveID
}

// Item is a raw Graph drive item, passed through unmodified.
type Item = json.RawMessage

// ListSites lists all SharePoint sites visible to the application.
func (c *Client) ListSites(ctx context.Context) ([]Item, error) {
	return c.getList(ctx, "/sites?search=*")
}

// ListDrives lists the document libraries of a site.
func (c *Client) ListDrives(ctx context.Context, siteID string) ([]Item, error) {
	return c.getList(ctx, fmt.Sprintf("/sites/%s/drives", siteID))
}

// ListFiles lists the root children of a drive.
func (c *Client) ListFiles(ctx context.Context, siteID, driveID string) ([]Item, error) {
	return c.getList(ctx, fmt.Sprintf("/sites/%s/drives/%s/root/children", siteID, driveID))
}

// Search searches a drive by file name.
func (c *Client) Search(ctx context.Context, siteID, driveID, query string) ([]Item, error) {
	path := fmt.Sprintf("/sites/%s/drives/%s/root/search(q='%s')", siteID, driveID, url.PathEscape(query))
	return c.getList(ctx, path)
}

// Download fetches the raw bytes of a drive item, following the content
// redirect Graph issues for file downloads.
func (c *Client) Download(ctx context.Context, siteID, driveID, itemID string) ([]byte, error) {
	path := fmt.Sprintf("/sites/%s/drives/%s/items/%s/content", siteID, driveID, itemID)

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "content read failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apierrors.UpstreamError("download")
	}
	return data, nil
}

// getList performs a GET and unwraps the Graph "value" envelope.
func (c *Client) getList(ctx context.Context, path string) ([]Item, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Value []Item `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.WarnContext(ctx, "invalid JSON from upstream",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apierrors.UpstreamError("list")
	}
	if envelope.Value == nil {
		envelope.Value = []Item{}
	}
	return envelope.Value, nil
}

// get performs an authenticated GET against the Graph base URL. Upstream
// errors are never echoed to clients; the response body is only logged,
// truncated.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.recordRequest(ctx, time.Since(start), err == nil && resp.StatusCode < 400)

	if err != nil {
		c.logger.WarnContext(ctx, "graph request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apierrors.UpstreamError("fetch")
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, apierrors.ErrFileNotFound
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		resp.Body.Close()
		c.logger.WarnContext(ctx, "graph request rejected",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, apierrors.UpstreamError("fetch")
	}

	return resp, nil
}

func (c *Client) recordRequest(ctx context.Context, duration time.Duration, success bool) {
	if c.metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
	)

	c.metrics.GraphRequestsTotal.Add(ctx, 1, attrs)
	c.metrics.GraphRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
