package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// A zero Date is "missing" for the required tag.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(chart.Date); ok && !d.IsZero() {
			return d.String()
		}
		return ""
	}, chart.Date{})
	return v
}

// LoadEvents reads suggested events from a .json, .yaml or .yml file.
func LoadEvents(path string) ([]suggest.Event, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()
	return ParseEvents(f, path, format)
}

// ParseEvents decodes a list of events in the given format and checks every
// record. An event without an end date covers its start date only.
func ParseEvents(r io.Reader, name string, format Format) ([]suggest.Event, error) {
	var events []suggest.Event
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&events); err != nil {
			return nil, &ParseError{Path: name, Err: err}
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&events); err != nil && !errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: name, Err: err}
		}
	default:
		return nil, fmt.Errorf("%s: events must be json or yaml: %w", name, ErrUnsupportedFormat)
	}

	seen := make(map[string]struct{}, len(events))
	for i := range events {
		ev := &events[i]
		if err := validateEvent(ev); err != nil {
			return nil, &ParseError{Path: name, Line: i + 1, Err: err}
		}
		if _, dup := seen[ev.ID]; dup {
			return nil, &ParseError{Path: name, Line: i + 1, Err: fmt.Errorf("%w: duplicate id %q", ErrInvalidEvent, ev.ID)}
		}
		seen[ev.ID] = struct{}{}
	}
	return events, nil
}

// validateEvent fills a missing end date and rejects incomplete or inverted
// records.
func validateEvent(ev *suggest.Event) error {
	if err := validate.Struct(ev); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: missing %s", ErrInvalidEvent, strings.Join(fields, ", "))
		}
		return err
	}
	if ev.EndDate.IsZero() {
		ev.EndDate = ev.StartDate
	}
	if ev.EndDate.Before(ev.StartDate) {
		return fmt.Errorf("%w: %q ends %s before it starts %s", ErrInvalidEvent, ev.ID, ev.EndDate, ev.StartDate)
	}
	return nil
}
