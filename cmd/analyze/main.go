// Command analyze runs the spreadsheet analysis pipeline over local files
// and prints one JSON result per file. It is the offline companion to the
// HTTP service: same inference, filters and aggregation, no server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"sheetsense/internal/analysis"
	"sheetsense/internal/config"
	"sheetsense/internal/exporter"
	"sheetsense/internal/infrastructure"
	"sheetsense/internal/services"
)

func main() {
	cardcode := flag.String("cardcode", "", "partner code substring filter (case-insensitive)")
	minTotal := flag.Float64("min-total", -1, "inclusive lower bound on total amount")
	maxTotal := flag.Float64("max-total", -1, "inclusive upper bound on total amount")
	startDate := flag.String("start-date", "", "inclusive start date (YYYY-MM-DD)")
	endDate := flag.String("end-date", "", "inclusive end date (YYYY-MM-DD)")
	workers := flag.Int("workers", 4, "number of files analyzed concurrently")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	csvPath := flag.String("csv", "", "also write supplier totals to this CSV file")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <file.xlsx|file.xls|file.csv>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	criteria := buildCriteria(*cardcode, *minTotal, *maxTotal, *startDate, *endDate)
	service := services.NewAnalysisService(cfg.Analysis, nil, logger, nil)

	var totals *exporter.TotalsWriter
	if *csvPath != "" {
		totals, err = exporter.CreateTotalsWriter(*csvPath)
		if err != nil {
			logger.Error("Failed to create CSV output", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("Starting batch analysis",
		slog.Int("files", len(files)),
		slog.Int("workers", *workers))

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)

	// Serialize writes so concurrent results do not interleave.
	var outputMu sync.Mutex
	failed := false

	for _, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			result, err := service.AnalyzeBytes(ctx, data, criteria)

			outputMu.Lock()
			defer outputMu.Unlock()

			if err != nil {
				failed = true
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				return nil
			}

			if totals != nil {
				if err := totals.WriteResult(path, result); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			return writeResult(path, result, *pretty)
		})
	}

	err = g.Wait()

	if totals != nil {
		if closeErr := totals.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		logger.Error("Batch analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func buildCriteria(cardcode string, minTotal, maxTotal float64, startDate, endDate string) *analysis.Criteria {
	criteria := &analysis.Criteria{}
	if cardcode != "" {
		criteria.CardCode = &cardcode
	}
	if minTotal >= 0 {
		criteria.MinTotal = &minTotal
	}
	if maxTotal >= 0 {
		criteria.MaxTotal = &maxTotal
	}
	if startDate != "" {
		criteria.StartDate = &startDate
	}
	if endDate != "" {
		criteria.EndDate = &endDate
	}
	return criteria
}

func writeResult(path string, result *analysis.Result, pretty bool) error {
	wrapped := struct {
		File   string           `json:"file"`
		Result *analysis.Result `json:"result"`
	}{File: path, Result: result}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(wrapped)
}
