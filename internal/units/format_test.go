package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		value    int64
		style    Style
		decimals int
	}{
		{name: "zero", value: 0, style: Windows, decimals: 1, want: "0.0 bytes"},
		{name: "negative", value: -42, style: Windows, decimals: 1, want: "0.0 bytes"},
		{name: "bytes", value: 999, style: Windows, decimals: 1, want: "999.0 bytes"},
		{name: "one KB", value: 1024, style: Windows, decimals: 1, want: "1.0 KB"},
		{name: "carry bytes to KB", value: 1000, style: Windows, decimals: 1, want: "1.0 KB"},
		{name: "carry KB to MB", value: 1000 * 1024, style: Windows, decimals: 1, want: "1.0 MB"},
		{name: "carry rounding", value: 1048524, style: Windows, decimals: 1, want: "1.0 MB"},
		{name: "binary", value: 1536, style: Binary, decimals: 1, want: "1.5 KiB"},
		{name: "metric kB", value: 1000, style: Metric, decimals: 1, want: "1.0 kB"},
		{name: "metric bytes", value: 999, style: Metric, decimals: 1, want: "999.0 bytes"},
		{name: "metric carry", value: 999_999, style: Metric, decimals: 1, want: "1.0 MB"},
		{name: "two decimals", value: 1536, style: Windows, decimals: 2, want: "1.50 KB"},
		{name: "no decimals", value: 5 * 1024 * 1024, style: Windows, decimals: 0, want: "5 MB"},
		{name: "gigabytes", value: 3 << 30, style: Binary, decimals: 1, want: "3.0 GiB"},
		{name: "max int64", value: math.MaxInt64, style: Windows, decimals: 1, want: "8.0 EB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value, tt.style, tt.decimals))
		})
	}
}

func TestFormatNumberGrouped(t *testing.T) {
	got := FormatNumber(1536, Windows, NumberFormat{Decimals: 2, Grouped: true})
	assert.Equal(t, "1.50 KB", got)

	got = FormatNumber(0, Metric, NumberFormat{Decimals: 1, Grouped: true})
	assert.Equal(t, "0.0 bytes", got)
}

func TestFormatNeverShowsThousand(t *testing.T) {
	for _, style := range []Style{Windows, Binary, Metric} {
		base := style.Base()
		for v := base*base - 2048; v < base*base+16; v++ {
			assert.NotContains(t, Format(v, style, 1), "1000.0", "value %d style %s", v, style)
		}
	}
}

func TestStyle(t *testing.T) {
	assert.Equal(t, int64(1024), Windows.Base())
	assert.Equal(t, int64(1024), Binary.Base())
	assert.Equal(t, int64(1000), Metric.Base())
	assert.Len(t, Metric.Suffixes(), 9)
	assert.Equal(t, "windows", Windows.String())
	assert.Equal(t, "unknown", Style(42).String())
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input string
		want  Style
	}{
		{"", Windows},
		{"windows", Windows},
		{"Binary", Binary},
		{"iec", Binary},
		{"metric", Metric},
		{" SI ", Metric},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStyle(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStyle("furlongs")
	assert.Error(t, err)
}
