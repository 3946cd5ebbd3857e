package schema

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "plain integer", input: "100", want: "100", ok: true},
		{name: "decimal", input: "1234.56", want: "1234.56", ok: true},
		{name: "negative", input: "-42.5", want: "-42.5", ok: true},
		{name: "thousand separators", input: "1,234,567.89", want: "1234567.89", ok: true},
		{name: "currency sign", input: "$1,200.00", want: "1200", ok: true},
		{name: "euro sign", input: "€99.90", want: "99.9", ok: true},
		{name: "accounting negative", input: "(1,200.50)", want: "-1200.5", ok: true},
		{name: "surrounding whitespace", input: "  250  ", want: "250", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "dash placeholder", input: "-", ok: false},
		{name: "text", input: "n/a", ok: false},
		{name: "mixed garbage", input: "12abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				want, err := decimal.NewFromString(tt.want)
				require.NoError(t, err)
				assert.True(t, got.Equal(want), "got %s want %s", got, want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // YYYY-MM-DD
		ok    bool
	}{
		{name: "iso date", input: "2024-03-15", want: "2024-03-15", ok: true},
		{name: "iso datetime", input: "2024-03-15 10:30:00", want: "2024-03-15", ok: true},
		{name: "iso T datetime", input: "2024-03-15T10:30:00", want: "2024-03-15", ok: true},
		{name: "slash month first", input: "03/15/2024", want: "2024-03-15", ok: true},
		{name: "short slash", input: "3/5/2024", want: "2024-03-05", ok: true},
		{name: "day month year", input: "15-Mar-2024", want: "2024-03-15", ok: true},
		{name: "compact", input: "20240315", want: "2024-03-15", ok: true},
		{name: "dotted", input: "15.03.2024", want: "2024-03-15", ok: true},
		{name: "excel serial", input: "45366", want: "2024-03-15", ok: true},
		{name: "excel serial with time fraction", input: "45366.5", want: "2024-03-15", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "text", input: "not a date", ok: false},
		{name: "serial out of range", input: "99999999", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseDate_SerialTimeOfDay(t *testing.T) {
	got, ok := ParseDate("45366.5")
	require.True(t, ok)
	assert.Equal(t, 12, got.Hour())
}

func TestParseDateStrict(t *testing.T) {
	got, ok := ParseDateStrict("2024-01-31")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseDateStrict("31/01/2024")
	assert.False(t, ok)

	_, ok = ParseDateStrict("2024-13-01")
	assert.False(t, ok)
}
