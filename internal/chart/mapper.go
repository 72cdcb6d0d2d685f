package chart

import (
	"math"
	"sort"
)

// Point is one plotted sample. A nil Value is a gap in the series.
type Point struct {
	Date  Date     `json:"date"`
	Value *float64 `json:"value"`
}

// Layout holds the fixed horizontal insets of the plotting rectangle. The
// usable width is the container width minus both insets.
type Layout struct {
	MarginLeft  float64 `json:"margin_left"`
	MarginRight float64 `json:"margin_right"`
}

// DefaultLayout matches the axis gutter of the exported trend chart.
func DefaultLayout() Layout {
	return Layout{MarginLeft: 60, MarginRight: 40}
}

// Mapper converts between sample index, calendar date and horizontal pixel
// position. The first sample sits on the left edge of the usable width and
// the last sample on the right edge.
//
// A Mapper is not safe for concurrent use; hosts call Recompute from the same
// loop that delivers pointer events.
type Mapper struct {
	points []Point
	layout Layout
	width  float64
	usable float64
}

// NewMapper returns a Mapper for points, which must be sorted by date with no
// duplicate dates, laid out inside a container of the given width.
func NewMapper(points []Point, layout Layout, width float64) *Mapper {
	m := &Mapper{points: points, layout: layout}
	m.Recompute(width)
	return m
}

// Recompute updates the container width. Hosts call it on every layout change.
func (m *Mapper) Recompute(width float64) {
	m.width = width
	m.usable = math.Max(0, width-m.layout.MarginLeft-m.layout.MarginRight)
}

// Len returns the number of samples.
func (m *Mapper) Len() int { return len(m.points) }

// Points returns the underlying data sequence. Callers must not modify it.
func (m *Mapper) Points() []Point { return m.points }

// Width returns the container width last passed to Recompute.
func (m *Mapper) Width() float64 { return m.width }

// Left returns the left inset of the plotting rectangle.
func (m *Mapper) Left() float64 { return m.layout.MarginLeft }

// UsableWidth returns the width between the two insets.
func (m *Mapper) UsableWidth() float64 { return m.usable }

// Spacing returns the horizontal distance between adjacent samples, or 0 when
// there are fewer than two.
func (m *Mapper) Spacing() float64 {
	if len(m.points) < 2 {
		return 0
	}
	return m.usable / float64(len(m.points)-1)
}

// IndexForPixel returns the sample index nearest to x, clamped to [0, N-1].
// With fewer than two samples it always returns 0.
func (m *Mapper) IndexForPixel(x float64) int {
	n := len(m.points)
	if n <= 1 || m.usable <= 0 {
		return 0
	}
	pos := (x - m.layout.MarginLeft) / m.usable
	return m.Clamp(int(math.Round(pos * float64(n-1))))
}

// PixelForIndex returns the x position of sample i. An empty sequence maps to
// the left inset and a single sample to the middle of the usable width.
func (m *Mapper) PixelForIndex(i int) float64 {
	switch n := len(m.points); n {
	case 0:
		return m.layout.MarginLeft
	case 1:
		return m.layout.MarginLeft + m.usable/2
	default:
		return m.layout.MarginLeft + float64(i)/float64(n-1)*m.usable
	}
}

// IndexForDate returns the index of d when the sequence contains it, else the
// index of the sample closest in time, preferring the lowest index on ties.
// An empty sequence yields 0.
func (m *Mapper) IndexForDate(d Date) int {
	n := len(m.points)
	if n == 0 {
		return 0
	}
	// first sample not before d
	i := sort.Search(n, func(i int) bool { return !m.points[i].Date.Before(d) })
	switch {
	case i == n:
		return n - 1
	case i == 0 || m.points[i].Date.Equal(d):
		return i
	}
	before := d.DaysSince(m.points[i-1].Date)
	after := m.points[i].Date.DaysSince(d)
	if before <= after {
		return i - 1
	}
	return i
}

// DateForIndex returns the date of sample i after clamping i into range. The
// second result is false for an empty sequence.
func (m *Mapper) DateForIndex(i int) (Date, bool) {
	if len(m.points) == 0 {
		return Date{}, false
	}
	return m.points[m.Clamp(i)].Date, true
}

// Clamp limits i to [0, N-1]; it returns 0 for an empty sequence.
func (m *Mapper) Clamp(i int) int {
	if i >= len(m.points) {
		i = len(m.points) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// DateRange returns the first and last sample dates. ok is false for an
// empty sequence.
func (m *Mapper) DateRange() (start, end Date, ok bool) {
	if len(m.points) == 0 {
		return Date{}, Date{}, false
	}
	return m.points[0].Date, m.points[len(m.points)-1].Date, true
}
