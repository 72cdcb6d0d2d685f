// Package export renders a session's annotated chart to shareable files and
// parses those files back.
package export

import (
	"time"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/session"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
)

// BundleVersion is written into every rendered bundle.
const BundleVersion = 1

// Bundle is the complete, renderable state of one annotated chart.
type Bundle struct {
	Version     int                     `json:"version"`
	Chart       ChartMeta               `json:"chart"`
	Series      []chart.Point           `json:"series"`
	Annotations []annotation.Annotation `json:"annotations"`
	Suggestions []suggest.VisibleEvent  `json:"suggestions,omitempty"`
	Dismissed   []string                `json:"dismissed,omitempty"`
}

// ChartMeta describes where the chart came from.
type ChartMeta struct {
	SessionID  string              `json:"session_id"`
	Title      string              `json:"title,omitempty"`
	SeriesPath string              `json:"series_path"`
	EventsPath string              `json:"events_path,omitempty"`
	Mode       suggest.DisplayMode `json:"display_mode"`
	StartDate  *chart.Date         `json:"start_date,omitempty"`
	EndDate    *chart.Date         `json:"end_date,omitempty"`
	ExportedAt time.Time           `json:"exported_at"`
	Author     string              `json:"author,omitempty"`
}

// New snapshots a session and its live board into a Bundle.
func New(sess *session.Session, board *timeline.Board, author string, now time.Time) *Bundle {
	b := &Bundle{
		Version: BundleVersion,
		Chart: ChartMeta{
			SessionID:  sess.ID,
			Title:      sess.Title,
			SeriesPath: sess.SeriesPath,
			EventsPath: sess.EventsPath,
			Mode:       board.Mode(),
			ExportedAt: now.UTC().Truncate(time.Second),
			Author:     author,
		},
		Series:      board.Mapper.Points(),
		Annotations: board.Store.List(),
		Suggestions: board.Suggestions(),
		Dismissed:   board.Dismissed.IDs(),
	}
	if start, end, ok := board.Mapper.DateRange(); ok {
		b.Chart.StartDate, b.Chart.EndDate = &start, &end
	}
	return b
}

// Title returns the chart title, falling back to the series file name.
func (b *Bundle) Title() string {
	if b.Chart.Title != "" {
		return b.Chart.Title
	}
	if b.Chart.SeriesPath != "" {
		return b.Chart.SeriesPath
	}
	return "KPI chart"
}
