package export

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators: 12,400 or 1,234.50.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return numberPrinter.Sprintf("%d", int64(v))
	}
	return numberPrinter.Sprintf("%.2f", v)
}

// ValueStats returns the lowest, highest and most recent plotted values.
// ok is false when every sample is a gap.
func (b *Bundle) ValueStats() (lo, hi, latest float64, ok bool) {
	for _, p := range b.Series {
		if p.Value == nil {
			continue
		}
		v := *p.Value
		if !ok {
			lo, hi, ok = v, v, true
		}
		lo, hi, latest = math.Min(lo, v), math.Max(hi, v), v
	}
	return lo, hi, latest, ok
}

// ValuesLine summarises the series values in one line. ok is false when
// every sample is a gap.
func (b *Bundle) ValuesLine() (string, bool) {
	lo, hi, latest, ok := b.ValueStats()
	if !ok {
		return "", false
	}
	return FormatNumber(lo) + " to " + FormatNumber(hi) + ", latest " + FormatNumber(latest), true
}
