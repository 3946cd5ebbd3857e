// Package services contains the business logic layer between HTTP handlers
// and the analysis and upstream packages.
package services

import (
	"context"
	"log/slog"
	"time"

	"sheetsense/internal/analysis"
	"sheetsense/internal/config"
	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/graph"
	"sheetsense/internal/infrastructure"
	"sheetsense/internal/tabular"
)

// AnalysisService decodes spreadsheet bytes and runs the analysis pipeline.
// Sources are either direct uploads or SharePoint drive items fetched
// through the Graph client.
type AnalysisService struct {
	analyzer *analysis.Analyzer
	graph    *graph.Client
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewAnalysisService creates the service. graphClient and metrics may be nil
// (the upload path needs neither).
func NewAnalysisService(cfg config.AnalysisConfig, graphClient *graph.Client, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		analyzer: analysis.NewAnalyzer(cfg, logger),
		graph:    graphClient,
		logger:   logger.With(slog.String("service", "analysis")),
		metrics:  metrics,
	}
}

// AnalyzeBytes decodes and analyzes an uploaded spreadsheet.
func (s *AnalysisService) AnalyzeBytes(ctx context.Context, data []byte, criteria *analysis.Criteria) (*analysis.Result, error) {
	return s.analyze(ctx, "upload", data, criteria)
}

// AnalyzeDriveItem downloads a SharePoint drive item and analyzes it.
func (s *AnalysisService) AnalyzeDriveItem(ctx context.Context, siteID, driveID, itemID string, criteria *analysis.Criteria) (*analysis.Result, error) {
	if s.graph == nil {
		return nil, apierrors.ErrAuthNotConfigured
	}

	if err := s.graph.SiteAllowed(siteID); err != nil {
		return nil, err
	}

	data, err := s.graph.Download(ctx, siteID, driveID, itemID)
	if err != nil {
		return nil, err
	}

	return s.analyze(ctx, "sharepoint", data, criteria)
}

func (s *AnalysisService) analyze(ctx context.Context, source string, data []byte, criteria *analysis.Criteria) (*analysis.Result, error) {
	start := time.Now()

	table, err := tabular.Load(data)
	if err != nil {
		s.logger.WarnContext(ctx, "table decode failed",
			slog.String("source", source),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.UnreadableTablesTotal.Add(ctx, 1)
		}
		infrastructure.RecordAnalysisMetrics(ctx, s.metrics, source, 0, 0, 0, time.Since(start), false)
		return nil, err
	}

	result, err := s.analyzer.Analyze(ctx, table, criteria)
	if err != nil {
		infrastructure.RecordAnalysisMetrics(ctx, s.metrics, source, len(table.Rows), 0, 0, time.Since(start), false)
		return nil, err
	}

	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, source,
		result.Stats.RowsLoaded, result.Stats.RowsFiltered, result.Stats.CoercionFailures,
		time.Since(start), true)

	return result, nil
}
