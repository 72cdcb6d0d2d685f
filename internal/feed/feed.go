// Package feed loads the data the engine consumes from its external
// collaborators: the KPI series behind a chart and the suggested-event list.
package feed

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrDuplicateDate is returned when a series holds two samples for the
	// same calendar date.
	ErrDuplicateDate = errors.New("duplicate date in series")
	// ErrUnsupportedFormat is returned for a file extension no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidEvent is returned for an event record that cannot be placed
	// on a timeline.
	ErrInvalidEvent = errors.New("invalid event")
)

// ParseError reports a malformed input file. Line is 1-based for line
// oriented formats and the record number for list formats; zero means the
// whole file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Format is an input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}
