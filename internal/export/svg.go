package export

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

const (
	thisYearStroke = "#F96302"
	lastYearStroke = "#86868b"
	gridStroke     = "#e0e0e0"
	axisText       = "#86868b"

	// DefaultMarkerColor is used for annotations without a color.
	DefaultMarkerColor = "#6e6e73"

	maxLabelRunes = 12
	maxXLabels    = 8
	gridLines     = 5
)

// SVGRenderer draws the series as a line chart with annotation markers. The
// horizontal layout goes through chart.Mapper, so markers land exactly where
// the interactive chart placed them.
type SVGRenderer struct {
	Width         float64
	Height        float64
	Layout        chart.Layout
	PaddingTop    float64
	PaddingBottom float64
}

// NewSVGRenderer returns a renderer with the report chart's dimensions.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{
		Width:         900,
		Height:        240,
		Layout:        chart.DefaultLayout(),
		PaddingTop:    20,
		PaddingBottom: 40,
	}
}

// formatValue shortens axis values: 1.2M, 45K or a whole number.
func formatValue(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1000:
		return fmt.Sprintf("%.0fK", v/1000)
	}
	return fmt.Sprintf("%.0f", v)
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxLabelRunes]) + "..."
}

// valueRange returns the padded y-axis bounds. ok is false when the series
// has no values at all.
func valueRange(points []chart.Point) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		lo = math.Min(lo, *p.Value)
		hi = math.Max(hi, *p.Value)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	lo, hi = lo*0.95, hi*1.05
	if lo == hi {
		lo, hi = lo*0.9, hi*1.1
	}
	if lo == hi {
		// All zeros.
		lo, hi = -1, 1
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

func (r *SVGRenderer) Render(b *Bundle) ([]byte, error) {
	payload, err := embedPayload(b)
	if err != nil {
		return nil, err
	}

	m := chart.NewMapper(b.Series, r.Layout, r.Width)
	plotTop := r.PaddingTop
	plotBottom := r.Height - r.PaddingBottom
	plotHeight := plotBottom - plotTop

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg class="chart-svg" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">`+"\n", num(r.Width), num(r.Height))
	sb.WriteString(payload)
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(b.Title()))

	lo, hi, ok := valueRange(b.Series)
	if !ok {
		fmt.Fprintf(&sb, `<text x="%s" y="%s" text-anchor="middle" font-size="12" fill="%s">No data</text>`+"\n",
			num(r.Width/2), num(r.Height/2), axisText)
		sb.WriteString("</svg>\n")
		return []byte(sb.String()), nil
	}
	span := hi - lo
	y := func(v float64) float64 { return plotTop + plotHeight - (v-lo)/span*plotHeight }

	left := r.Layout.MarginLeft
	right := r.Width - r.Layout.MarginRight

	sb.WriteString(`<g class="grid-lines">` + "\n")
	for i := 0; i <= gridLines; i++ {
		gy := plotTop + float64(i)/gridLines*plotHeight
		fmt.Fprintf(&sb, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`+"\n",
			num(left), num(gy), num(right), num(gy), gridStroke)
		val := hi - float64(i)/gridLines*span
		fmt.Fprintf(&sb, `<text x="%s" y="%s" text-anchor="end" font-size="10" fill="%s">%s</text>`+"\n",
			num(left-10), num(gy+4), axisText, formatValue(val))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g class="x-labels">` + "\n")
	n := len(b.Series)
	step := max(1, n/min(maxXLabels, n))
	for i := 0; i < n; i += step {
		fmt.Fprintf(&sb, `<text x="%s" y="%s" text-anchor="middle" font-size="9" fill="%s">%s</text>`+"\n",
			num(m.PixelForIndex(i)), num(r.Height-10), axisText, b.Series[i].Date.Time().Format("01-02"))
	}
	sb.WriteString("</g>\n")

	stroke, width := thisYearStroke, "2.5"
	if b.Chart.Mode == suggest.LastYearOnly {
		stroke, width = lastYearStroke, "2"
	}
	// Gaps split the line.
	var seg []string
	flush := func() {
		if len(seg) > 0 {
			fmt.Fprintf(&sb, `<polyline points="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"/>`+"\n",
				strings.Join(seg, " "), stroke, width)
		}
		seg = seg[:0]
	}
	for i, p := range b.Series {
		if p.Value == nil {
			flush()
			continue
		}
		seg = append(seg, num(m.PixelForIndex(i))+","+num(y(*p.Value)))
	}
	flush()

	if len(b.Annotations) > 0 {
		sb.WriteString(`<g class="tag-markers">` + "\n")
		first, last, _ := m.DateRange()
		for _, a := range b.Annotations {
			if a.EndDate.Before(first) || a.StartDate.After(last) {
				continue
			}
			r.marker(&sb, m, a, plotTop, plotBottom)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String()), nil
}

// marker draws a dashed line for a point annotation and a translucent band
// for a span, each with a dot and a truncated name at the top.
func (r *SVGRenderer) marker(sb *strings.Builder, m *chart.Mapper, a annotation.Annotation, top, bottom float64) {
	color := a.Color
	if color == "" {
		color = DefaultMarkerColor
	}
	color = html.EscapeString(color)
	x := m.PixelForIndex(m.IndexForDate(a.StartDate))
	if a.IsSpan() {
		x2 := m.PixelForIndex(m.IndexForDate(a.EndDate))
		fmt.Fprintf(sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" opacity="0.12"/>`+"\n",
			num(x), num(top), num(math.Max(x2-x, 1)), num(bottom-top), color)
	}
	fmt.Fprintf(sb, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2" stroke-dasharray="4 2" opacity="0.7"/>`+"\n",
		num(x), num(top), num(x), num(bottom), color)
	fmt.Fprintf(sb, `<circle cx="%s" cy="%s" r="4" fill="%s"/>`+"\n", num(x), num(top+8), color)
	if a.Name != "" {
		fmt.Fprintf(sb, `<text x="%s" y="%s" font-size="8" fill="%s" font-weight="600">%s</text>`+"\n",
			num(x+6), num(top+12), color, html.EscapeString(truncateLabel(a.Name)))
	}
}
