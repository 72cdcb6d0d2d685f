// Package annotation holds the markers placed on a trend chart and the
// ordered store that owns them.
package annotation

import (
	"errors"

	"github.com/fakeyudi/kpimarks/internal/chart"
)

var (
	// ErrNotFound is returned when an operation names an annotation id the
	// store does not hold.
	ErrNotFound = errors.New("annotation not found")
	// ErrDuplicateID is returned by Add when the id is already present.
	ErrDuplicateID = errors.New("duplicate annotation id")
	// ErrInvalidOperation is returned for requests the current state cannot
	// honour, such as saving a draft without a name.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Provenance records where an annotation came from.
type Provenance string

const (
	Manual           Provenance = "manual"
	PinnedSuggestion Provenance = "pinnedSuggestion"
)

// Annotation is a point or date-range marker on the timeline. Equal start
// and end dates make it a point; otherwise it is a span.
type Annotation struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Color         string     `json:"color,omitempty"`
	Owner         string     `json:"owner,omitempty"`
	Description   string     `json:"description,omitempty"`
	StartDate     chart.Date `json:"start_date"`
	EndDate       chart.Date `json:"end_date"`
	SourceEventID string     `json:"source_event_id,omitempty"` // set when pinned from a suggestion
	Provenance    Provenance `json:"provenance"`
}

// IsPoint reports whether a covers a single date.
func (a Annotation) IsPoint() bool { return a.StartDate.Equal(a.EndDate) }

// IsSpan reports whether a covers more than one date.
func (a Annotation) IsSpan() bool { return a.EndDate.After(a.StartDate) }

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Color       *string
	Owner       *string
	Description *string
	StartDate   *chart.Date
	EndDate     *chart.Date
}

// apply returns a copy of a with p's non-nil fields set.
func (p Patch) apply(a Annotation) Annotation {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Owner != nil {
		a.Owner = *p.Owner
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.StartDate != nil {
		a.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		a.EndDate = *p.EndDate
	}
	return a
}
