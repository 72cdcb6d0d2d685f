// Package chart maps a KPI time series onto a horizontal plotting surface.
//
// Everything here is pure geometry: the Mapper converts between sample
// indices, calendar dates and horizontal pixel positions for a plot whose
// width is supplied by the host and may change at any time.
package chart

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Date is a calendar day without a time-of-day or zone. The zero value is
// 0001-01-01.
type Date struct {
	t time.Time // always midnight UTC
}

// NewDate returns the date for year, month, day. Out-of-range values are
// normalised the same way time.Date does.
func NewDate(year int, month time.Month, d int) Date {
	return Date{t: time.Date(year, month, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals; it panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays returns d shifted by n days. The shift is a flat 24h multiple, so
// AddDays(-365) is not a calendar-year shift across leap days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.Add(time.Duration(n) * day)}
}

// DaysSince returns the signed number of days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t) / day)
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string. An empty string or null leaves
// the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
