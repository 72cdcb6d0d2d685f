package export_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/export"
	"github.com/fakeyudi/kpimarks/internal/session"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
)

func generateBundle(t *rapid.T) *export.Bundle {
	base := chart.NewDate(2024, 1, 1)
	n := rapid.IntRange(1, 30).Draw(t, "num_points")
	series := make([]chart.Point, n)
	for i := range series {
		series[i] = chart.Point{Date: base.AddDays(i)}
		if rapid.IntRange(0, 4).Draw(t, "gap") > 0 {
			v := rapid.Float64Range(-1e6, 1e7).Draw(t, "value")
			series[i].Value = &v
		}
	}
	start, end := series[0].Date, series[n-1].Date

	var anns []annotation.Annotation
	for i := rapid.IntRange(1, 5).Draw(t, "num_annotations"); i > 0; i-- {
		s := rapid.IntRange(0, n-1).Draw(t, "ann_start")
		e := rapid.IntRange(s, n-1).Draw(t, "ann_end")
		anns = append(anns, annotation.Annotation{
			ID:          fmt.Sprintf("ann-%d", i),
			Name:        rapid.StringN(1, 30, -1).Draw(t, "ann_name"),
			Color:       rapid.SampledFrom([]string{"", "#ff9500", "#34c759"}).Draw(t, "ann_color"),
			Owner:       rapid.StringN(0, 20, -1).Draw(t, "ann_owner"),
			Description: rapid.StringN(0, 60, -1).Draw(t, "ann_desc"),
			StartDate:   series[s].Date,
			EndDate:     series[e].Date,
			Provenance:  annotation.Manual,
		})
	}

	var sugg []suggest.VisibleEvent
	for i := rapid.IntRange(0, 3).Draw(t, "num_suggestions"); i > 0; i-- {
		d := base.AddDays(rapid.IntRange(0, n-1).Draw(t, "sugg_day"))
		sugg = append(sugg, suggest.VisibleEvent{
			Event:         suggest.Event{ID: fmt.Sprintf("evt-%d", i), Label: rapid.StringN(1, 20, -1).Draw(t, "sugg_label"), StartDate: d, EndDate: d},
			AdjustedStart: d,
			AdjustedEnd:   d,
			YearLabel:     "TY",
		})
	}

	return &export.Bundle{
		Version: export.BundleVersion,
		Chart: export.ChartMeta{
			SessionID:  rapid.StringN(1, 36, -1).Draw(t, "session_id"),
			Title:      rapid.StringN(0, 30, -1).Draw(t, "title"),
			SeriesPath: "kpi.csv",
			Mode:       rapid.SampledFrom(suggest.Modes).Draw(t, "mode"),
			StartDate:  &start,
			EndDate:    &end,
			ExportedAt: time.Unix(rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, "exported"), 0).UTC(),
			Author:     rapid.StringN(0, 20, -1).Draw(t, "author"),
		},
		Series:      series,
		Annotations: anns,
		Suggestions: sugg,
		Dismissed:   rapid.SliceOfDistinct(rapid.StringMatching(`evt-[0-9]{1,3}`), rapid.ID[string]).Draw(t, "dismissed"),
	}
}

func sameBundle(t *rapid.T, got, want *export.Bundle) {
	g, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	if !bytes.Equal(g, w) {
		t.Fatalf("round trip mismatch:\n got  %s\n want %s", g, w)
	}
}

// Feature: kpimarks, Property 12: every export format round-trips the bundle
func TestExportRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := generateBundle(t)
		for _, format := range export.Formats {
			r, err := export.RendererFor(format)
			if err != nil {
				t.Fatalf("RendererFor(%s): %v", format, err)
			}
			data, err := r.Render(original)
			if err != nil {
				t.Fatalf("%s Render: %v", format, err)
			}
			got, err := export.ParserFor("out" + format.Ext()).Parse(data)
			if err != nil {
				t.Fatalf("%s Parse: %v", format, err)
			}
			sameBundle(t, got, original)
		}
	})
}

// Feature: kpimarks, Property 13: Markdown lists every annotation
func TestMarkdownCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := generateBundle(t)
		data, err := (&export.MarkdownRenderer{}).Render(b)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		md := string(data)
		for _, section := range []string{"## Summary", "## Events & Annotations", "## Suggested Events"} {
			if !strings.Contains(md, section) {
				t.Errorf("Markdown output missing section %q", section)
			}
		}
		for _, a := range b.Annotations {
			if !strings.Contains(md, "### "+a.Name+"\n") {
				t.Errorf("annotation %q has no card", a.Name)
			}
		}
	})
}

func TestMarkdownEmptyAnnotations(t *testing.T) {
	b := &export.Bundle{Version: export.BundleVersion, Chart: export.ChartMeta{SeriesPath: "kpi.csv", Mode: suggest.BothYears}}
	data, err := (&export.MarkdownRenderer{}).Render(b)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	md := string(data)
	if !strings.Contains(md, "No events or annotations added.") {
		t.Error("missing empty-annotations fallback")
	}
	if !strings.Contains(md, "_empty series_") {
		t.Error("missing empty-series range")
	}
}

func TestMarkdownCardDetails(t *testing.T) {
	d := chart.MustParseDate("2024-01-05")
	e := chart.MustParseDate("2024-01-08")
	b := &export.Bundle{
		Version: export.BundleVersion,
		Annotations: []annotation.Annotation{
			{ID: "a", Name: "Promo", Owner: "Ana", Description: "Spring promo", StartDate: d, EndDate: e, Provenance: annotation.Manual},
			{ID: "b", Name: "Black Friday", StartDate: d, EndDate: d, SourceEventID: "bf", Provenance: annotation.PinnedSuggestion},
		},
	}
	data, _ := (&export.MarkdownRenderer{}).Render(b)
	md := string(data)
	for _, want := range []string{
		"- Dates: 2024-01-05 to 2024-01-08",
		"- Owner: Ana",
		"\nSpring promo\n",
		"- Date: 2024-01-05",
		"- Pinned from: bf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRendererForUnknownFormat(t *testing.T) {
	if _, err := export.RendererFor("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNewSnapshotsBoard(t *testing.T) {
	points := []chart.Point{
		{Date: chart.MustParseDate("2024-01-01")},
		{Date: chart.MustParseDate("2024-01-02")},
		{Date: chart.MustParseDate("2024-01-03")},
	}
	events := []suggest.Event{
		{ID: "e1", Label: "Launch", StartDate: chart.MustParseDate("2024-01-02"), EndDate: chart.MustParseDate("2024-01-02")},
		{ID: "e2", Label: "Old", StartDate: chart.MustParseDate("2024-01-03"), EndDate: chart.MustParseDate("2024-01-03")},
	}
	board := timeline.NewBoard(points, events, nil, suggest.NewDismissalSet("e2"), timeline.Options{Layout: chart.DefaultLayout(), Width: 900})
	sess := &session.Session{ID: "s1", SeriesPath: "kpi.csv", Title: "Visits"}
	now := time.Date(2024, 2, 1, 10, 30, 15, 999, time.UTC)

	b := export.New(sess, board, "Ana", now)
	if b.Version != export.BundleVersion || b.Chart.SessionID != "s1" || b.Chart.Author != "Ana" || b.Title() != "Visits" {
		t.Errorf("meta = %+v", b.Chart)
	}
	if b.Chart.StartDate.String() != "2024-01-01" || b.Chart.EndDate.String() != "2024-01-03" {
		t.Errorf("range = %s..%s", b.Chart.StartDate, b.Chart.EndDate)
	}
	if !b.Chart.ExportedAt.Equal(now.Truncate(time.Second)) {
		t.Errorf("ExportedAt = %v", b.Chart.ExportedAt)
	}
	if len(b.Suggestions) != 1 || b.Suggestions[0].ID != "e1" {
		t.Errorf("Suggestions = %+v", b.Suggestions)
	}
	if len(b.Dismissed) != 1 || b.Dismissed[0] != "e2" {
		t.Errorf("Dismissed = %v", b.Dismissed)
	}
}
