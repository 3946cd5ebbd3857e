package analysis

import (
	"sheetsense/internal/schema"
	"sheetsense/internal/tabular"
)

// previewFields is the fixed allow-list for sample records. The preview is
// deliberately narrower than the detected mapping so full rows never leak
// into responses.
var previewFields = []schema.Field{
	schema.FieldPartnerCode,
	schema.FieldPartnerName,
	schema.FieldDocNumber,
	schema.FieldTotalAmount,
	schema.FieldDate,
}

// sampleRecords projects the first limit surviving rows onto the detected
// subset of the preview fields, keyed by canonical field name. Amounts
// render as numbers, dates as YYYY-MM-DD, and missing coerced cells as null.
func sampleRecords(table *tabular.Table, mapping schema.Mapping, cc *coerced, kept []int, limit int) []map[string]any {
	records := []map[string]any{}

	cols := []schema.Field{}
	for _, f := range previewFields {
		if mapping.Has(f) {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return records
	}

	for _, i := range kept {
		if len(records) >= limit {
			break
		}

		rec := make(map[string]any, len(cols))
		for _, f := range cols {
			switch f {
			case schema.FieldTotalAmount:
				if cc.amounts[i] != nil {
					rec[string(f)] = cc.amounts[i].InexactFloat64()
				} else {
					rec[string(f)] = nil
				}
			case schema.FieldDate:
				if cc.dates[i] != nil {
					rec[string(f)] = cc.dates[i].Format("2006-01-02")
				} else {
					rec[string(f)] = nil
				}
			default:
				rec[string(f)] = table.Rows[i][mapping[f]]
			}
		}
		records = append(records, rec)
	}

	return records
}
