package services

import (
	"context"
	"log/slog"

	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/graph"
)

// SharePointService exposes the browsing surface over the Graph client:
// sites, drives, files and name search. It owns ID validation, defaulting
// and the site allow-list so handlers stay thin.
type SharePointService struct {
	graph  *graph.Client
	logger *slog.Logger
}

// NewSharePointService creates the service. graphClient may be nil when the
// upstream is not configured; every call then fails with an auth error.
func NewSharePointService(graphClient *graph.Client, logger *slog.Logger) *SharePointService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SharePointService{
		graph:  graphClient,
		logger: logger.With(slog.String("service", "sharepoint")),
	}
}

func (s *SharePointService) ready() error {
	if s.graph == nil || !s.graph.Configured() {
		return apierrors.ErrAuthNotConfigured
	}
	return nil
}

// ListSites lists all accessible SharePoint sites.
func (s *SharePointService) ListSites(ctx context.Context) ([]graph.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.graph.ListSites(ctx)
}

// ListDrives lists the document libraries of a site.
func (s *SharePointService) ListDrives(ctx context.Context, siteID string) ([]graph.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := graph.ValidateID(siteID, "site_id"); err != nil {
		return nil, err
	}
	if err := s.graph.SiteAllowed(siteID); err != nil {
		return nil, err
	}
	return s.graph.ListDrives(ctx, siteID)
}

// ListFiles lists the root children of a drive. Missing IDs fall back to the
// configured defaults; when neither is available the request is invalid.
func (s *SharePointService) ListFiles(ctx context.Context, siteID, driveID string) ([]graph.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	siteID, driveID, err := s.resolveDrive(siteID, driveID)
	if err != nil {
		return nil, err
	}
	return s.graph.ListFiles(ctx, siteID, driveID)
}

// Search searches a drive by file name.
func (s *SharePointService) Search(ctx context.Context, query, siteID, driveID string) ([]graph.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, apierrors.ErrValidation("q", "search query must not be empty")
	}
	siteID, driveID, err := s.resolveDrive(siteID, driveID)
	if err != nil {
		return nil, err
	}
	return s.graph.Search(ctx, siteID, driveID, query)
}

// resolveDrive validates the given IDs, applies configured defaults and
// enforces the site allow-list.
func (s *SharePointService) resolveDrive(siteID, driveID string) (string, string, error) {
	if err := graph.ValidateID(siteID, "site_id"); err != nil {
		return "", "", err
	}
	if err := graph.ValidateID(driveID, "drive_id"); err != nil {
		return "", "", err
	}

	siteID, driveID = s.graph.ApplyDefaults(siteID, driveID)
	if siteID == "" || driveID == "" {
		return "", "", apierrors.ErrValidation("site_id", "site_id and drive_id are required (no defaults configured)")
	}

	if err := s.graph.SiteAllowed(siteID); err != nil {
		return "", "", err
	}

	return siteID, driveID, nil
}
