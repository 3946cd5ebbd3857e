package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("v1.2.3", nil, discardLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessUploadOnlyMode(t *testing.T) {
	hs := NewHealthService("v1.0.0", nil, discardLogger())

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)

	sharepoint, ok := status.Services["sharepoint"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", sharepoint.Status)
	assert.Contains(t, sharepoint.Message, "upload-only")
}

func TestHealthService_ReadinessConfigured(t *testing.T) {
	hs := NewHealthService("v1.0.0", offlineGraphClient("", "", nil), discardLogger())

	status := hs.ReadinessCheck(context.Background())

	sharepoint, ok := status.Services["sharepoint"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", sharepoint.Status)
	assert.Contains(t, sharepoint.Message, "configured")
}

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService("v1.0.0", nil, discardLogger())

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
	assert.Contains(t, status.Runtime, "goroutines")
}
