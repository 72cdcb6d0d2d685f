package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/export"
	"github.com/fakeyudi/kpimarks/internal/feed"
	"github.com/fakeyudi/kpimarks/internal/session"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
)

// workspace is the active session with its inputs loaded into a board.
type workspace struct {
	store session.SessionStore
	sess  *session.Session
	board *timeline.Board
}

// chartLayout is the export chart geometry from config. Commands that work
// in dates rather than pixels use it too, so their boards agree with the SVG.
func chartLayout() chart.Layout {
	return chart.Layout{MarginLeft: cfg.Left(), MarginRight: cfg.Right()}
}

// openWorkspace loads the active session and builds its board.
func openWorkspace(layout chart.Layout, width float64) (*workspace, error) {
	store, err := session.NewSessionStore()
	if err != nil {
		return nil, err
	}
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	board, err := openBoard(sess, layout, width)
	if err != nil {
		return nil, err
	}
	return &workspace{store: store, sess: sess, board: board}, nil
}

func openBoard(sess *session.Session, layout chart.Layout, width float64) (*timeline.Board, error) {
	points, err := feed.LoadSeries(sess.SeriesPath)
	if err != nil {
		return nil, fmt.Errorf("loading series: %w", err)
	}
	events, err := loadEvents(sess.EventsPath)
	if err != nil {
		return nil, err
	}
	annotations, err := sess.Store()
	if err != nil {
		return nil, fmt.Errorf("session annotations: %w", err)
	}
	appLog.Debug("board opened",
		zap.String("series", sess.SeriesPath),
		zap.Int("points", len(points)),
		zap.Int("events", len(events)),
		zap.Int("annotations", annotations.Len()))
	return timeline.NewBoard(points, events, annotations, sess.Dismissals(), timeline.Options{
		Layout:      layout,
		Width:       width,
		Mode:        sess.Mode,
		SpanLength:  cfg.SpanLength,
		PinnedColor: cfg.PinnedColor,
		Logger:      appLog,
	}), nil
}

func loadEvents(path string) ([]suggest.Event, error) {
	if path == "" {
		return nil, nil
	}
	events, err := feed.LoadEvents(path)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return events, nil
}

// save captures the board's annotation set, dismissals and mode into the
// session and writes it.
func (w *workspace) save() error {
	w.sess.Capture(w.board.Store, w.board.Dismissed)
	w.sess.Mode = w.board.Mode()
	return w.store.Save(w.sess)
}

// snapDate moves d onto the nearest sample of the series.
func (w *workspace) snapDate(d chart.Date) (chart.Date, error) {
	mp := w.board.Mapper
	snapped, ok := mp.DateForIndex(mp.IndexForDate(d))
	if !ok {
		return chart.Date{}, fmt.Errorf("series %s has no samples", w.sess.SeriesPath)
	}
	return snapped, nil
}

func author() string {
	if p := GetProfile(); p != nil {
		return p.Name
	}
	return ""
}

// exportFormat resolves a --format flag against the configured default.
func exportFormat(flag string) (export.Format, error) {
	if flag == "" {
		flag = cfg.DefaultFormat
	}
	f := export.Format(flag)
	if !slices.Contains(export.Formats, f) {
		return "", fmt.Errorf("unknown export format %q (want markdown, json or svg)", flag)
	}
	return f, nil
}

func renderBundle(b *export.Bundle, format export.Format) ([]byte, error) {
	if format == export.FormatSVG {
		r := export.NewSVGRenderer()
		r.Width = cfg.ChartWidth
		r.Layout = chartLayout()
		return r.Render(b)
	}
	r, err := export.RendererFor(format)
	if err != nil {
		return nil, err
	}
	return r.Render(b)
}

// writeExport renders the workspace to path, or to a timestamped file in the
// output directory when path is empty. It returns the path written.
func (w *workspace) writeExport(format export.Format, path string, now time.Time) (string, error) {
	b := export.New(w.sess, w.board, author(), now)
	data, err := renderBundle(b, format)
	if err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}
	if path == "" {
		dir := cfg.OutputDir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, "kpimarks-"+now.Format("20060102-150405")+format.Ext())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := session.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	appLog.Debug("exported", zap.String("path", path), zap.String("format", string(format)))
	return path, nil
}
