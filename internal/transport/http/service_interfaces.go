package http

import (
	"context"

	"sheetsense/internal/analysis"
	"sheetsense/internal/graph"
)

// AnalysisServiceInterface defines the contract the analysis handlers need.
// Handlers depend on this rather than the concrete service so tests can
// substitute fakes.
type AnalysisServiceInterface interface {
	AnalyzeBytes(ctx context.Context, data []byte, criteria *analysis.Criteria) (*analysis.Result, error)
	AnalyzeDriveItem(ctx context.Context, siteID, driveID, itemID string, criteria *analysis.Criteria) (*analysis.Result, error)
}

// SharePointServiceInterface defines the contract for the browsing surface.
type SharePointServiceInterface interface {
	ListSites(ctx context.Context) ([]graph.Item, error)
	ListDrives(ctx context.Context, siteID string) ([]graph.Item, error)
	ListFiles(ctx context.Context, siteID, driveID string) ([]graph.Item, error)
	Search(ctx context.Context, query, siteID, driveID string) ([]graph.Item, error)
}
