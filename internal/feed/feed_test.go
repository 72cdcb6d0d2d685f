package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

func TestParseSeriesCSV(t *testing.T) {
	in := "date,value\n2024-01-03,7\n2024-01-01,12.5\n2024-01-02,\n"
	points, err := ParseSeriesCSV(strings.NewReader(in), "kpi.csv")
	if err != nil {
		t.Fatalf("ParseSeriesCSV: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, p := range points {
		if p.Date.String() != want[i] {
			t.Errorf("points[%d].Date = %s, want %s", i, p.Date, want[i])
		}
	}
	if points[0].Value == nil || *points[0].Value != 12.5 {
		t.Errorf("points[0].Value = %v, want 12.5", points[0].Value)
	}
	if points[1].Value != nil {
		t.Errorf("empty value should be a gap, got %v", *points[1].Value)
	}
}

func TestParseSeriesCSVWithoutHeader(t *testing.T) {
	points, err := ParseSeriesCSV(strings.NewReader("2024-02-01,1\n2024-02-02,2\n"), "kpi.csv")
	if err != nil {
		t.Fatalf("ParseSeriesCSV: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("got %d points, want 2", len(points))
	}
}

func TestParseSeriesCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"bad date", "date,value\n2024-01-01,1\nJan 2,2\n", 3},
		{"bad value", "2024-01-01,abc\n", 1},
		{"missing value column", "date,value\n2024-01-01\n", 2},
		{"after blank lines", "date,value\n\n2024-01-01,1\n\n2024-01-02,x\n", 5},
		{"after quoted newline", "date,value\n2024-01-01,\"1\n\"\n2024-01-03,x\n", 4},
		{"bare quote", "date,value\n2024-01-01,1\n2024-01-02,2\"x\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeriesCSV(strings.NewReader(tt.in), "kpi.csv")
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Line != tt.line || pe.Path != "kpi.csv" {
				t.Errorf("ParseError at %s:%d, want kpi.csv:%d", pe.Path, pe.Line, tt.line)
			}
		})
	}
}

func TestParseSeriesRejectsDuplicateDates(t *testing.T) {
	_, err := ParseSeriesCSV(strings.NewReader("2024-01-01,1\n2024-01-02,2\n2024-01-01,3\n"), "kpi.csv")
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("err = %v, want ErrDuplicateDate", err)
	}
	_, err = ParseSeriesJSON(strings.NewReader(`[{"date":"2024-01-01","value":1},{"date":"2024-01-01","value":2}]`), "kpi.json")
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("json err = %v, want ErrDuplicateDate", err)
	}
}

func TestParseSeriesJSON(t *testing.T) {
	in := `[{"date":"2024-01-02","value":3},{"date":"2024-01-01","value":null},{"date":"2024-01-03"}]`
	points, err := ParseSeriesJSON(strings.NewReader(in), "kpi.json")
	if err != nil {
		t.Fatalf("ParseSeriesJSON: %v", err)
	}
	if points[0].Date.String() != "2024-01-01" || points[0].Value != nil {
		t.Errorf("points[0] = %+v", points[0])
	}
	if points[1].Value == nil || *points[1].Value != 3 {
		t.Errorf("points[1].Value = %v, want 3", points[1].Value)
	}
	if points[2].Value != nil {
		t.Errorf("missing value should be a gap")
	}

	if _, err := ParseSeriesJSON(strings.NewReader(`[{"value":1}]`), "kpi.json"); err == nil {
		t.Error("expected error for a sample without a date")
	}
}

func TestLoadSeriesByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "kpi.csv")
	if err := os.WriteFile(csvPath, []byte("date,value\n2024-01-01,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if points, err := LoadSeries(csvPath); err != nil || len(points) != 1 {
		t.Errorf("LoadSeries(csv) = %v, %v", points, err)
	}
	txt := filepath.Join(dir, "kpi.txt")
	if err := os.WriteFile(txt, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeries(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadSeries(txt) err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := LoadSeries(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadSeries(missing) err = %v, want not-exist", err)
	}
}

func TestParseEventsYAML(t *testing.T) {
	in := `
- id: bf
  label: Black Friday
  start_date: 2023-11-24
  end_date: 2023-11-27
  tier: true
- id: launch
  label: App launch
  start_date: "2024-01-10"
`
	events, err := ParseEvents(strings.NewReader(in), "events.yaml", FormatYAML)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Tier || events[0].EndDate.String() != "2023-11-27" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if !events[1].EndDate.Equal(events[1].StartDate) {
		t.Errorf("missing end date should default to start, got %s", events[1].EndDate)
	}
}

func TestParseEventsJSON(t *testing.T) {
	in := `[{"id":"a","label":"A","start_date":"2024-03-01","end_date":null}]`
	events, err := ParseEvents(strings.NewReader(in), "events.json", FormatJSON)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if events[0].EndDate.String() != "2024-03-01" {
		t.Errorf("EndDate = %s, want 2024-03-01", events[0].EndDate)
	}
}

func TestParseEventsEmptyYAML(t *testing.T) {
	events, err := ParseEvents(strings.NewReader(""), "events.yaml", FormatYAML)
	if err != nil || len(events) != 0 {
		t.Errorf("ParseEvents(empty) = %v, %v", events, err)
	}
}

func TestParseEventsRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing label", `[{"id":"a","start_date":"2024-01-01"}]`, "label"},
		{"missing start", `[{"id":"a","label":"A"}]`, "start_date"},
		{"missing id", `[{"label":"A","start_date":"2024-01-01"}]`, "id"},
		{"inverted", `[{"id":"a","label":"A","start_date":"2024-01-05","end_date":"2024-01-01"}]`, "before it starts"},
		{"duplicate", `[{"id":"a","label":"A","start_date":"2024-01-01"},{"id":"a","label":"B","start_date":"2024-01-02"}]`, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvents(strings.NewReader(tt.in), "events.json", FormatJSON)
			if !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("err = %v, want ErrInvalidEvent", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseEventsUnsupportedFormat(t *testing.T) {
	if _, err := ParseEvents(strings.NewReader(""), "events.csv", FormatCSV); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestWatchEventsRedeliversOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan []suggest.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- WatchEvents(ctx, path, nil, func(events []suggest.Event, err error) {
			if err == nil {
				got <- events
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	body := `[{"id":"x","label":"X","start_date":"2024-01-01"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case events := <-got:
			if len(events) == 1 && events[0].ID == "x" {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("WatchEvents returned %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// Feature: kpimarks, Property 10: loaded series are sorted with unique dates
func TestSeriesNormalisation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offsets := rapid.SliceOfNDistinct(rapid.IntRange(-400, 400), 1, 40, rapid.ID[int]).Draw(t, "offsets")
		base := chart.NewDate(2024, 1, 1)
		var sb strings.Builder
		sb.WriteString("date,value\n")
		for i, off := range offsets {
			if rapid.Bool().Draw(t, "gap") {
				fmt.Fprintf(&sb, "%s,\n", base.AddDays(off))
			} else {
				fmt.Fprintf(&sb, "%s,%d\n", base.AddDays(off), i)
			}
		}
		points, err := ParseSeriesCSV(strings.NewReader(sb.String()), "p.csv")
		if err != nil {
			t.Fatalf("ParseSeriesCSV: %v", err)
		}
		if len(points) != len(offsets) {
			t.Fatalf("got %d points, want %d", len(points), len(offsets))
		}
		for i := 1; i < len(points); i++ {
			if !points[i-1].Date.Before(points[i].Date) {
				t.Fatalf("points not strictly increasing at %d: %s, %s", i, points[i-1].Date, points[i].Date)
			}
		}
	})
}
