package analysis

import (
	"strings"

	"github.com/shopspring/decimal"

	"sheetsense/internal/schema"
	"sheetsense/internal/tabular"
)

// applyFilters returns the indices of rows surviving the criteria. Filters
// apply in a fixed order (partner substring, min total, max total, start
// date, end date) and are conjunctive. A filter whose field was not detected
// is silently ignored. Active numeric and date filters exclude rows whose
// cell is missing; a bound cannot be satisfied by a value that does not
// exist.
func applyFilters(table *tabular.Table, mapping schema.Mapping, cc *coerced, criteria *Criteria) []int {
	kept := make([]int, len(table.Rows))
	for i := range kept {
		kept[i] = i
	}

	if criteria.CardCode != nil && *criteria.CardCode != "" {
		if col, ok := mapping[schema.FieldPartnerCode]; ok {
			needle := strings.ToLower(*criteria.CardCode)
			kept = keepIf(kept, func(i int) bool {
				return strings.Contains(strings.ToLower(table.Rows[i][col]), needle)
			})
		}
	}

	if criteria.MinTotal != nil && mapping.Has(schema.FieldTotalAmount) {
		min := decimal.NewFromFloat(*criteria.MinTotal)
		kept = keepIf(kept, func(i int) bool {
			return cc.amounts[i] != nil && cc.amounts[i].GreaterThanOrEqual(min)
		})
	}

	if criteria.MaxTotal != nil && mapping.Has(schema.FieldTotalAmount) {
		max := decimal.NewFromFloat(*criteria.MaxTotal)
		kept = keepIf(kept, func(i int) bool {
			return cc.amounts[i] != nil && cc.amounts[i].LessThanOrEqual(max)
		})
	}

	if criteria.StartDate != nil && mapping.Has(schema.FieldDate) {
		if start, ok := schema.ParseDateStrict(*criteria.StartDate); ok {
			kept = keepIf(kept, func(i int) bool {
				return cc.dates[i] != nil && !cc.dates[i].Before(start)
			})
		}
	}

	if criteria.EndDate != nil && mapping.Has(schema.FieldDate) {
		if end, ok := schema.ParseDateStrict(*criteria.EndDate); ok {
			kept = keepIf(kept, func(i int) bool {
				return cc.dates[i] != nil && !cc.dates[i].After(end)
			})
		}
	}

	return kept
}

func keepIf(indices []int, pred func(i int) bool) []int {
	out := indices[:0]
	for _, i := range indices {
		if pred(i) {
			out = append(out, i)
		}
	}
	return out
}
