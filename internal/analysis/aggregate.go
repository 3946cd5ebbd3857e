package analysis

import (
	"github.com/shopspring/decimal"

	"sheetsense/internal/schema"
	"sheetsense/internal/tabular"
)

// aggregate groups the surviving rows by partner code (and partner name when
// one was detected) and sums the amount column per group. Missing amounts
// count as zero inside a group; the row still anchors the group. Groups are
// emitted in first-seen row order, which keeps output deterministic for a
// given input.
//
// Sums run in decimal and convert to float64 only at the boundary, so
// accumulation order cannot perturb the totals.
func aggregate(table *tabular.Table, mapping schema.Mapping, cc *coerced, kept []int) []AggregateRow {
	out := []AggregateRow{}

	codeCol, hasCode := mapping[schema.FieldPartnerCode]
	_, hasAmount := mapping[schema.FieldTotalAmount]
	if !hasCode || !hasAmount || len(kept) == 0 {
		return out
	}

	nameCol, hasName := mapping[schema.FieldPartnerName]

	type group struct {
		index int
		sum   decimal.Decimal
	}
	groups := make(map[string]*group)
	order := []string{}

	for _, i := range kept {
		code := table.Rows[i][codeCol]
		key := code
		name := ""
		if hasName {
			name = table.Rows[i][nameCol]
			key = code + "\x00" + name
		}

		g, ok := groups[key]
		if !ok {
			g = &group{index: len(out)}
			groups[key] = g
			order = append(order, key)

			row := AggregateRow{CardCode: code}
			if hasName {
				n := name
				row.CardName = &n
			}
			out = append(out, row)
		}

		if cc.amounts[i] != nil {
			g.sum = g.sum.Add(*cc.amounts[i])
		}
	}

	for _, key := range order {
		g := groups[key]
		out[g.index].TotalAmount = g.sum.InexactFloat64()
	}

	return out
}
