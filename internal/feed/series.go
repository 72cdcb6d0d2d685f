package feed

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fakeyudi/kpimarks/internal/chart"
)

// LoadSeries reads a KPI series from a .csv or .json file. The result is
// sorted by date.
func LoadSeries(path string) ([]chart.Point, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		return ParseSeriesCSV(f, path)
	case FormatJSON:
		return ParseSeriesJSON(f, path)
	}
	return nil, fmt.Errorf("%s: series must be csv or json: %w", path, ErrUnsupportedFormat)
}

// ParseSeriesCSV reads date,value rows. A header row is optional and an empty
// value is a gap in the series. name is used in error messages.
func ParseSeriesCSV(r io.Reader, name string) ([]chart.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []chart.Point
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Path: name, Line: csvErr.StartLine, Err: csvErr.Err}
			}
			return nil, &ParseError{Path: name, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		header := first && strings.EqualFold(strings.TrimSpace(rec[0]), "date")
		first = false
		if header {
			continue
		}
		if len(rec) < 2 {
			return nil, &ParseError{Path: name, Line: line, Err: fmt.Errorf("want date,value, got %d field(s)", len(rec))}
		}
		d, err := chart.ParseDate(rec[0])
		if err != nil {
			return nil, &ParseError{Path: name, Line: line, Err: err}
		}
		p := chart.Point{Date: d}
		if raw := strings.TrimSpace(rec[1]); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &ParseError{Path: name, Line: line, Err: fmt.Errorf("invalid value %q", raw)}
			}
			p.Value = &v
		}
		points = append(points, p)
	}
	return normalise(points, name)
}

// ParseSeriesJSON reads an array of {"date": ..., "value": ...} objects. A
// null or missing value is a gap.
func ParseSeriesJSON(r io.Reader, name string) ([]chart.Point, error) {
	var points []chart.Point
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	for i, p := range points {
		if p.Date.IsZero() {
			return nil, &ParseError{Path: name, Line: i + 1, Err: errors.New("missing date")}
		}
	}
	return normalise(points, name)
}

// normalise sorts points by date and rejects repeated dates.
func normalise(points []chart.Point, name string) ([]chart.Point, error) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	for i := 1; i < len(points); i++ {
		if points[i].Date.Equal(points[i-1].Date) {
			return nil, &ParseError{Path: name, Err: fmt.Errorf("%s: %w", points[i].Date, ErrDuplicateDate)}
		}
	}
	return points, nil
}
