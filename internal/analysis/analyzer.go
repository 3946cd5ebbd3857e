package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"sheetsense/internal/config"
	"sheetsense/internal/schema"
	"sheetsense/internal/tabular"
)

// Result is the stable analysis output shape. Key names and casing are part
// of the API contract; downstream consumers key on them.
type Result struct {
	FilteredBy     Criteria         `json:"filtered_by"`
	FieldsDetected []schema.Field   `json:"fields_detected"`
	SupplierTotals []AggregateRow   `json:"supplier_totals"`
	SampleRecords  []map[string]any `json:"sample_records"`
	TotalRecords   int              `json:"total_records"`

	// Stats carries run counters for metrics and logging; it is not part
	// of the response body.
	Stats Stats `json:"-"`
}

// Stats summarizes one analysis run.
type Stats struct {
	RowsLoaded       int
	RowsFiltered     int
	CoercionFailures int
	Duration         time.Duration
}

// AggregateRow is one partner group with its summed amount. CardName is
// present only when a partner name column was detected.
type AggregateRow struct {
	CardCode    string  `json:"CardCode"`
	CardName    *string `json:"CardName,omitempty"`
	TotalAmount float64 `json:"TotalAmount"`
}

// Analyzer runs the full inference, filter, aggregation and projection
// pipeline over decoded tables.
type Analyzer struct {
	logger *slog.Logger
	cfg    config.AnalysisConfig
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg config.AnalysisConfig, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		logger: logger.With(slog.String("component", "analyzer")),
		cfg:    cfg,
	}
}

// coerced holds per-row typed views of the amount and date columns. A nil
// entry means the cell was empty or failed coercion; failures never abort
// the run, the cell is just missing.
type coerced struct {
	amounts  []*decimal.Decimal
	dates    []*time.Time
	failures int
}

// Analyze validates criteria and produces a Result for the table. Zero-row
// tables short-circuit before inference: no headers are reported as detected
// when there is no data to analyze.
func (a *Analyzer) Analyze(ctx context.Context, table *tabular.Table, criteria *Criteria) (*Result, error) {
	if criteria == nil {
		criteria = &Criteria{}
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	if table.Empty() {
		a.logger.InfoContext(ctx, "table has no data rows, skipping inference")
		return &Result{
			FilteredBy:     *criteria,
			FieldsDetected: []schema.Field{},
			SupplierTotals: []AggregateRow{},
			SampleRecords:  []map[string]any{},
			TotalRecords:   0,
		}, nil
	}

	mapping := schema.Infer(table.Headers)
	cc := coerceColumns(table, mapping)
	kept := applyFilters(table, mapping, cc, criteria)

	result := &Result{
		FilteredBy:     *criteria,
		FieldsDetected: mapping.Detected(),
		SupplierTotals: aggregate(table, mapping, cc, kept),
		SampleRecords:  sampleRecords(table, mapping, cc, kept, a.cfg.SampleSize),
		TotalRecords:   len(kept),
		Stats: Stats{
			RowsLoaded:       len(table.Rows),
			RowsFiltered:     len(kept),
			CoercionFailures: cc.failures,
			Duration:         time.Since(start),
		},
	}

	a.logger.InfoContext(ctx, "analysis completed",
		slog.Int("columns", len(table.Headers)),
		slog.Int("rows_loaded", result.Stats.RowsLoaded),
		slog.Int("rows_filtered", result.Stats.RowsFiltered),
		slog.Int("fields_detected", len(result.FieldsDetected)),
		slog.Int("coercion_failures", result.Stats.CoercionFailures),
		slog.Duration("duration", result.Stats.Duration),
	)

	return result, nil
}

// coerceColumns types the amount and date columns once up front so filters
// and aggregation share the same coerced view of each cell.
func coerceColumns(table *tabular.Table, mapping schema.Mapping) *coerced {
	cc := &coerced{
		amounts: make([]*decimal.Decimal, len(table.Rows)),
		dates:   make([]*time.Time, len(table.Rows)),
	}

	amountCol, hasAmount := mapping[schema.FieldTotalAmount]
	dateCol, hasDate := mapping[schema.FieldDate]

	for i, row := range table.Rows {
		if hasAmount {
			cell := row[amountCol]
			if d, ok := schema.ParseAmount(cell); ok {
				v := d
				cc.amounts[i] = &v
			} else if cell != "" {
				cc.failures++
			}
		}
		if hasDate {
			cell := row[dateCol]
			if t, ok := schema.ParseDate(cell); ok {
				v := t
				cc.dates[i] = &v
			} else if cell != "" {
				cc.failures++
			}
		}
	}

	return cc
}
