// Package suggest derives the suggested events that should be offered on a
// chart from an externally supplied event list.
package suggest

import (
	"fmt"
	"sort"

	"github.com/fakeyudi/kpimarks/internal/chart"
)

// LastYearShiftDays is the flat offset applied in last-year mode. It is not
// calendar aware: across a leap day the shifted date lands one day later
// than a calendar-year shift would.
const LastYearShiftDays = 365

// DisplayMode selects which year's axis is active.
type DisplayMode string

const (
	BothYears    DisplayMode = "bothYears"
	ThisYearOnly DisplayMode = "thisYearOnly"
	LastYearOnly DisplayMode = "lastYearOnly"
)

// Modes lists the display modes in cycling order.
var Modes = []DisplayMode{BothYears, ThisYearOnly, LastYearOnly}

// ParseDisplayMode accepts the canonical names and the short ty/ly/both forms.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch s {
	case "", "both", string(BothYears):
		return BothYears, nil
	case "ty", string(ThisYearOnly):
		return ThisYearOnly, nil
	case "ly", string(LastYearOnly):
		return LastYearOnly, nil
	}
	return "", fmt.Errorf("unknown display mode %q (want bothYears, thisYearOnly or lastYearOnly)", s)
}

// Next returns the mode after m in Modes.
func (m DisplayMode) Next() DisplayMode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return BothYears
}

// YearLabel returns "LY" in last-year mode and "TY" otherwise.
func (m DisplayMode) YearLabel() string {
	if m == LastYearOnly {
		return "LY"
	}
	return "TY"
}

// Event is a suggested event as delivered by the events feed. The engine
// never modifies one.
type Event struct {
	ID        string     `json:"id" yaml:"id" validate:"required"`
	Label     string     `json:"label" yaml:"label" validate:"required"`
	StartDate chart.Date `json:"start_date" yaml:"start_date" validate:"required"`
	EndDate   chart.Date `json:"end_date" yaml:"end_date"`
	Tier      bool       `json:"tier" yaml:"tier"`
}

// VisibleEvent is an Event placed on the active axis.
type VisibleEvent struct {
	Event
	AdjustedStart chart.Date `json:"adjusted_start"`
	AdjustedEnd   chart.Date `json:"adjusted_end"`
	YearLabel     string     `json:"year_label"`
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start chart.Date
	End   chart.Date
}

// Overlaps reports whether [start, end] intersects r.
func (r DateRange) Overlaps(start, end chart.Date) bool {
	return !start.After(r.End) && !end.Before(r.Start)
}

// IDSet is a set of event ids.
type IDSet map[string]struct{}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VisibleEvents returns the events to offer on a chart spanning r. An event
// is dropped when it has been dismissed, when it is already pinned, or when
// its shifted range falls entirely outside r. Order is unspecified.
func VisibleEvents(raw []Event, r DateRange, mode DisplayMode, dismissed, pinned IDSet) []VisibleEvent {
	label := mode.YearLabel()
	var visible []VisibleEvent
	for _, ev := range raw {
		if dismissed.Has(ev.ID) || pinned.Has(ev.ID) {
			continue
		}
		start, end := ev.StartDate, ev.EndDate
		if mode == LastYearOnly {
			start = start.AddDays(-LastYearShiftDays)
			end = end.AddDays(-LastYearShiftDays)
		}
		if !r.Overlaps(start, end) {
			continue
		}
		visible = append(visible, VisibleEvent{
			Event:         ev,
			AdjustedStart: start,
			AdjustedEnd:   end,
			YearLabel:     label,
		})
	}
	return visible
}
