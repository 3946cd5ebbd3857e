package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsense/internal/config"
	"sheetsense/internal/schema"
	"sheetsense/internal/tabular"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.AnalysisConfig{SampleSize: 10, MaxUploadBytes: 1 << 20}, slog.Default())
}

func tableOf(grid [][]string) *tabular.Table {
	return tabular.NewTable(grid)
}

// The canonical three-row supplier table used throughout.
func supplierTable() *tabular.Table {
	return tableOf([][]string{
		{"CardCode", "CardName", "DocTotal"},
		{"A1", "Acme", "100"},
		{"A1", "Acme", "50"},
		{"B2", "Globex", "200"},
	})
}

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func TestAnalyze_ZeroRows(t *testing.T) {
	a := newTestAnalyzer()

	// Headers present but no data rows: inference must not run.
	table := tableOf([][]string{{"CardCode", "DocTotal"}})

	result, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalRecords)
	assert.Empty(t, result.FieldsDetected)
	assert.Empty(t, result.SupplierTotals)
	assert.Empty(t, result.SampleRecords)
}

func TestAnalyze_GroupingAndTotals(t *testing.T) {
	a := newTestAnalyzer()

	result, err := a.Analyze(context.Background(), supplierTable(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
	require.Len(t, result.SupplierTotals, 2)

	// First-seen group order.
	assert.Equal(t, "A1", result.SupplierTotals[0].CardCode)
	require.NotNil(t, result.SupplierTotals[0].CardName)
	assert.Equal(t, "Acme", *result.SupplierTotals[0].CardName)
	assert.Equal(t, 150.0, result.SupplierTotals[0].TotalAmount)

	assert.Equal(t, "B2", result.SupplierTotals[1].CardCode)
	assert.Equal(t, 200.0, result.SupplierTotals[1].TotalAmount)
}

func TestAnalyze_MinTotalFilter(t *testing.T) {
	a := newTestAnalyzer()

	result, err := a.Analyze(context.Background(), supplierTable(), &Criteria{MinTotal: f64Ptr(150)})
	require.NoError(t, err)

	// Row-level bound: 100 and 50 fail individually even though their
	// group sums to 150.
	assert.Equal(t, 1, result.TotalRecords)
	require.Len(t, result.SupplierTotals, 1)
	assert.Equal(t, "B2", result.SupplierTotals[0].CardCode)
	assert.Equal(t, 200.0, result.SupplierTotals[0].TotalAmount)
}

func TestAnalyze_FilteringIsMonotonic(t *testing.T) {
	a := newTestAnalyzer()
	ctx := context.Background()

	base, err := a.Analyze(ctx, supplierTable(), &Criteria{MinTotal: f64Ptr(50)})
	require.NoError(t, err)

	narrowed, err := a.Analyze(ctx, supplierTable(), &Criteria{MinTotal: f64Ptr(50), MaxTotal: f64Ptr(120)})
	require.NoError(t, err)

	assert.LessOrEqual(t, narrowed.TotalRecords, base.TotalRecords)
}

func TestAnalyze_CardCodeSubstringFilter(t *testing.T) {
	a := newTestAnalyzer()

	result, err := a.Analyze(context.Background(), supplierTable(), &Criteria{CardCode: strPtr("a1")})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRecords, "match is case-insensitive")
	require.Len(t, result.SupplierTotals, 1)
	assert.Equal(t, 150.0, result.SupplierTotals[0].TotalAmount)
}

func TestAnalyze_DateRangeFilter(t *testing.T) {
	a := newTestAnalyzer()

	table := tableOf([][]string{
		{"CardCode", "DocDate", "DocTotal"},
		{"A1", "2024-01-10", "100"},
		{"A1", "2024-02-10", "50"},
		{"B2", "not a date", "200"},
	})

	result, err := a.Analyze(context.Background(), table, &Criteria{
		StartDate: strPtr("2024-01-01"),
		EndDate:   strPtr("2024-01-31"),
	})
	require.NoError(t, err)

	// The unparseable date is missing and an active date bound excludes it.
	assert.Equal(t, 1, result.TotalRecords)
}

func TestAnalyze_FiltersOnUndetectedFieldsIgnored(t *testing.T) {
	a := newTestAnalyzer()

	// No date column, so date bounds are no-ops.
	result, err := a.Analyze(context.Background(), supplierTable(), &Criteria{
		StartDate: strPtr("2030-01-01"),
		EndDate:   strPtr("2030-12-31"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
}

func TestAnalyze_MissingAmountExcludedByActiveBound(t *testing.T) {
	a := newTestAnalyzer()

	table := tableOf([][]string{
		{"CardCode", "DocTotal"},
		{"A1", "100"},
		{"A1", ""},
		{"B2", "junk"},
	})

	unfiltered, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, unfiltered.TotalRecords, "no active bound keeps missing rows")

	bounded, err := a.Analyze(context.Background(), table, &Criteria{MinTotal: f64Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 1, bounded.TotalRecords, "active bound excludes missing amounts")
}

func TestAnalyze_AggregationSumInvariant(t *testing.T) {
	a := newTestAnalyzer()

	// Missing amount counts as zero inside its group.
	table := tableOf([][]string{
		{"CardCode", "DocTotal"},
		{"A1", "100.25"},
		{"A1", ""},
		{"B2", "200"},
	})

	result, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)

	var sum float64
	for _, row := range result.SupplierTotals {
		sum += row.TotalAmount
	}
	assert.Equal(t, 300.25, sum)
}

func TestAnalyze_NoAggregationWithoutRequiredColumns(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name string
		grid [][]string
	}{
		{
			name: "no amount column",
			grid: [][]string{{"CardCode", "Notes"}, {"A1", "x"}},
		},
		{
			name: "no partner code column",
			grid: [][]string{{"Notes", "DocTotal"}, {"x", "100"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Analyze(context.Background(), tableOf(tt.grid), nil)
			require.NoError(t, err)
			assert.Empty(t, result.SupplierTotals)
		})
	}
}

func TestAnalyze_CardNameOmittedWhenUndetected(t *testing.T) {
	a := newTestAnalyzer()

	table := tableOf([][]string{
		{"CardCode", "DocTotal"},
		{"A1", "100"},
	})

	result, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)

	require.Len(t, result.SupplierTotals, 1)
	assert.Nil(t, result.SupplierTotals[0].CardName)

	data, err := json.Marshal(result.SupplierTotals[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "CardName")
}

func TestAnalyze_SampleRecords(t *testing.T) {
	a := newTestAnalyzer()

	table := tableOf([][]string{
		{"CardCode", "CardName", "DocNum", "DocDate", "DocTotal", "Secret"},
		{"A1", "Acme", "INV-1", "2024-01-10", "100", "pii"},
		{"B2", "Globex", "INV-2", "junk", "", "pii"},
	})

	result, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)
	require.Len(t, result.SampleRecords, 2)

	first := result.SampleRecords[0]
	assert.Equal(t, "A1", first["partner_code"])
	assert.Equal(t, "Acme", first["partner_name"])
	assert.Equal(t, "INV-1", first["doc_number"])
	assert.Equal(t, 100.0, first["total_amount"])
	assert.Equal(t, "2024-01-10", first["date"])
	assert.NotContains(t, first, "Secret", "undetected columns never leak")
	assert.NotContains(t, first, "secret")

	second := result.SampleRecords[1]
	assert.Nil(t, second["total_amount"], "missing coerced cells render as null")
	assert.Nil(t, second["date"])
}

func TestAnalyze_SampleRecordsCapped(t *testing.T) {
	a := newTestAnalyzer()

	grid := [][]string{{"CardCode", "DocTotal"}}
	for i := 0; i < 25; i++ {
		grid = append(grid, []string{"A1", "10"})
	}

	result, err := a.Analyze(context.Background(), tableOf(grid), nil)
	require.NoError(t, err)

	assert.Equal(t, 25, result.TotalRecords)
	assert.Len(t, result.SampleRecords, 10)
}

func TestAnalyze_FilteredByEcho(t *testing.T) {
	a := newTestAnalyzer()

	criteria := &Criteria{CardCode: strPtr("A"), MinTotal: f64Ptr(10)}
	result, err := a.Analyze(context.Background(), supplierTable(), criteria)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	var filteredBy map[string]any
	require.NoError(t, json.Unmarshal(decoded["filtered_by"], &filteredBy))

	assert.Equal(t, "A", filteredBy["cardcode"])
	assert.Equal(t, 10.0, filteredBy["min_total"])
	assert.Nil(t, filteredBy["max_total"], "unset filters echo as null")
	assert.Nil(t, filteredBy["start_date"])
	assert.Nil(t, filteredBy["end_date"])
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := newTestAnalyzer()
	ctx := context.Background()
	criteria := &Criteria{MinTotal: f64Ptr(50)}

	first, err := a.Analyze(ctx, supplierTable(), criteria)
	require.NoError(t, err)
	second, err := a.Analyze(ctx, supplierTable(), criteria)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestAnalyze_InvalidCriteriaRejected(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.Analyze(context.Background(), supplierTable(), &Criteria{
		MinTotal: f64Ptr(200),
		MaxTotal: f64Ptr(100),
	})
	require.Error(t, err)
}

func TestAnalyze_FieldsDetectedCanonicalOrder(t *testing.T) {
	a := newTestAnalyzer()

	table := tableOf([][]string{
		{"DocTotal", "CardCode", "U_Region"},
		{"100", "A1", "north"},
	})

	result, err := a.Analyze(context.Background(), table, nil)
	require.NoError(t, err)

	assert.Equal(t, []schema.Field{
		schema.FieldPartnerCode,
		schema.FieldTotalAmount,
		schema.FieldCustomFields,
	}, result.FieldsDetected)
}
