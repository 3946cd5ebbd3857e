package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsense/internal/config"
	apierrors "sheetsense/internal/errors"
)

// newTestClient wires a client and its token cache against one stub server
// that answers both the token endpoint and the Graph API.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/test-tenant/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := graphTestConfig(srv.URL)
	cfg.BaseURL = srv.URL

	tokens := NewTokenCache(cfg, discardLogger(), nil)
	return NewClient(cfg, tokens, discardLogger(), nil), srv
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "empty passes", value: "", ok: true},
		{name: "guid", value: "b!x1Y-3_abc.DEF:0", ok: true},
		{name: "plain id", value: "01ABCDEF", ok: true},
		{name: "path traversal", value: "../etc/passwd", ok: false},
		{name: "embedded space", value: "a b", ok: false},
		{name: "query injection", value: "x?expand=1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.value, "site_id")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
		})
	}
}

func TestClient_SiteAllowed(t *testing.T) {
	open := NewClient(config.GraphConfig{}, nil, discardLogger(), nil)
	assert.NoError(t, open.SiteAllowed("any-site"), "empty allow-list permits all")

	restricted := NewClient(config.GraphConfig{AllowedSiteIDs: []string{"site-a", "site-b"}}, nil, discardLogger(), nil)
	assert.NoError(t, restricted.SiteAllowed("site-b"))
	assert.NoError(t, restricted.SiteAllowed(""), "unset site defers to defaults")

	err := restricted.SiteAllowed("site-c")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SITE_NOT_ALLOWED", apiErr.ErrorCode)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestClient_ApplyDefaults(t *testing.T) {
	c := NewClient(config.GraphConfig{DefaultSiteID: "def-site", DefaultDriveID: "def-drive"}, nil, discardLogger(), nil)

	site, drive := c.ApplyDefaults("", "")
	assert.Equal(t, "def-site", site)
	assert.Equal(t, "def-drive", drive)

	site, drive = c.ApplyDefaults("explicit", "")
	assert.Equal(t, "explicit", site)
	assert.Equal(t, "def-drive", drive)
}

func TestClient_ListSites(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("search"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Write([]byte(`{"value":[{"id":"site-1","name":"Finance"},{"id":"site-2"}]}`))
	})

	items, err := c.ListSites(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"id":"site-1","name":"Finance"}`, string(items[0]))
}

func TestClient_ListEmptyValue(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":null}`))
	})

	items, err := c.ListFiles(context.Background(), "site-1", "drive-1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_SearchEscapesQuery(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"value":[]}`))
	})

	_, err := c.Search(context.Background(), "site-1", "drive-1", "q1 2024/ap")
	require.NoError(t, err)
	assert.NotContains(t, gotPath, " ")
	assert.Contains(t, gotPath, "search(q='q1%202024%2Fap')")
}

func TestClient_Download(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/site-1/drives/drive-1/items/item-1/content", r.URL.Path)
		w.Write([]byte("CardCode,DocTotal\nA1,100\n"))
	})

	data, err := c.Download(context.Background(), "site-1", "drive-1", "item-1")
	require.NoError(t, err)
	assert.Equal(t, "CardCode,DocTotal\nA1,100\n", string(data))
}

func TestClient_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Download(context.Background(), "site-1", "drive-1", "missing")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "FILE_NOT_FOUND", apiErr.ErrorCode)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_UpstreamErrorNotEchoed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal tenant detail"}}`))
	})

	_, err := c.ListSites(context.Background())
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UPSTREAM_ERROR", apiErr.ErrorCode)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotContains(t, apiErr.Error(), "internal tenant detail")
}
