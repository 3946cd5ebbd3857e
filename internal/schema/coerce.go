package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount coercion accepts the messy numeric spellings that show up in ERP
// exports: thousand separators, currency signs, accounting-style negatives.
// Anything unparseable becomes missing rather than an error; a bad cell must
// never abort an analysis.

var currencySigns = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"₹", "",
	"¥", "",
)

// ParseAmount coerces a cell to a decimal amount. The second return value is
// false when the cell is empty or unparseable.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Decimal{}, false
	}

	// Accounting negatives: (1,200.50) means -1200.50
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencySigns.Replace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// dateLayouts are tried in order. ISO forms first, then the slash and
// dotted forms common in regional Excel exports. Month-first slash dates
// take precedence over day-first, matching the upstream exports this
// service was built against.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02/01/2006 15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"20060102",
	"02.01.2006",
}

// excelEpoch is day zero of the 1900 date system. Serial 1 is 1900-01-01;
// the offset bakes in Excel's fictitious 1900-02-29.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate coerces a cell to a date. Plain numbers are interpreted as Excel
// serial day counts, which is how date cells surface when a workbook is read
// without format metadata. The second return value is false when the cell is
// empty or unparseable.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Excel serial dates. Bound the range to plausible business dates so
	// ordinary numeric columns misdetected as dates do not all coerce.
	if serial, ok := ParseAmount(s); ok {
		days := serial.IntPart()
		if days > 0 && days < 200000 {
			frac := serial.Sub(decimal.NewFromInt(days))
			t := excelEpoch.AddDate(0, 0, int(days))
			if !frac.IsZero() {
				seconds := frac.Mul(decimal.NewFromInt(86400)).IntPart()
				t = t.Add(time.Duration(seconds) * time.Second)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseDateStrict accepts only the YYYY-MM-DD form used by filter criteria.
func ParseDateStrict(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
