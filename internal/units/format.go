package units

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NumberFormat controls how the scaled value is rendered.
type NumberFormat struct {
	Decimals int
	// Grouped inserts thousands separators (English locale).
	Grouped bool
}

// Format renders value as "<n> <suffix>" with the given number of decimals,
// e.g. Format(1024, Windows, 1) == "1.0 KB".
func Format(value int64, style Style, decimals int) string {
	return FormatNumber(value, style, NumberFormat{Decimals: decimals})
}

// FormatNumber is Format with full control over number rendering.
//
// The displayed value always stays below 1000 in the chosen unit unless the
// largest suffix is reached: a value that would round to "1000.0 KB" is shown
// as "1.0 MB".
func FormatNumber(value int64, style Style, nf NumberFormat) string {
	suffixes := style.Suffixes()
	if value <= 0 {
		return nf.render(0) + " " + suffixes[0]
	}

	base := style.Base()
	mag := 0
	div := int64(1)
	// value/div >= base is value >= div*base without the overflow.
	for mag < len(suffixes)-1 && value/div >= base {
		div *= base
		mag++
	}

	adjusted := float64(value) / float64(div)
	if round(adjusted, nf.Decimals) >= 1000 && mag < len(suffixes)-1 {
		mag++
		adjusted /= float64(base)
	}

	return nf.render(round(adjusted, nf.Decimals)) + " " + suffixes[mag]
}

func (nf NumberFormat) render(v float64) string {
	decimals := max(nf.Decimals, 0)
	if nf.Grouped {
		p := message.NewPrinter(language.English)
		return p.Sprint(number.Decimal(v,
			number.MinFractionDigits(decimals),
			number.MaxFractionDigits(decimals),
		))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(max(decimals, 0)))
	return math.RoundToEven(v*p) / p
}
