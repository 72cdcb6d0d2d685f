// Package timeline wires the annotation engine for one trend chart: the
// coordinate mapper, the caller's annotation store and dismissal set, the
// raw suggested events and the interaction controller.
package timeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/interact"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

// ErrUnknownEvent is returned by Pin when the event id is not currently
// offered as a suggestion.
var ErrUnknownEvent = errors.New("event is not a visible suggestion")

// Board is one chart's annotation engine. The visible suggestion list is
// derived on every call, so pins, removals, dismissals and mode changes are
// reflected immediately.
type Board struct {
	Mapper     *chart.Mapper
	Store      *annotation.Store
	Dismissed  *suggest.DismissalSet
	Controller *interact.Controller

	events []suggest.Event
	mode   suggest.DisplayMode
	log    *zap.Logger
}

// Options are the knobs a host passes through to the engine.
type Options struct {
	Layout      chart.Layout
	Width       float64
	Mode        suggest.DisplayMode
	SpanLength  int
	PinnedColor string
	Logger      *zap.Logger
	NewID       func() string // nil uses uuids
}

// NewBoard assembles a board over points. store and dismissed are owned by
// the caller and may be nil, in which case empty ones are created.
func NewBoard(points []chart.Point, events []suggest.Event, store *annotation.Store, dismissed *suggest.DismissalSet, opts Options) *Board {
	if store == nil {
		store, _ = annotation.NewStore()
	}
	if dismissed == nil {
		dismissed = suggest.NewDismissalSet()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	mode := opts.Mode
	if mode == "" {
		mode = suggest.BothYears
	}
	mapper := chart.NewMapper(points, opts.Layout, opts.Width)
	ctrlOpts := []interact.Option{
		interact.WithLogger(log),
		interact.WithSpanLength(opts.SpanLength),
		interact.WithPinnedColor(opts.PinnedColor),
	}
	if opts.NewID != nil {
		ctrlOpts = append(ctrlOpts, interact.WithIDGenerator(opts.NewID))
	}
	return &Board{
		Mapper:     mapper,
		Store:      store,
		Dismissed:  dismissed,
		Controller: interact.NewController(mapper, store, ctrlOpts...),
		events:     events,
		mode:       mode,
		log:        log,
	}
}

// Mode returns the active display mode.
func (b *Board) Mode() suggest.DisplayMode { return b.mode }

// SetMode changes the display mode.
func (b *Board) SetMode(m suggest.DisplayMode) {
	b.log.Debug("display mode", zap.String("mode", string(m)))
	b.mode = m
}

// Events returns the raw suggested events.
func (b *Board) Events() []suggest.Event { return b.events }

// SetEvents replaces the raw suggested events, for example after the events
// feed was re-fetched.
func (b *Board) SetEvents(events []suggest.Event) {
	b.log.Debug("events replaced", zap.Int("count", len(events)))
	b.events = events
}

// Range returns the chart's date span. ok is false for an empty series.
func (b *Board) Range() (suggest.DateRange, bool) {
	start, end, ok := b.Mapper.DateRange()
	return suggest.DateRange{Start: start, End: end}, ok
}

// Suggestions returns the suggestions to render right now.
func (b *Board) Suggestions() []suggest.VisibleEvent {
	r, ok := b.Range()
	if !ok {
		return nil
	}
	return suggest.VisibleEvents(b.events, r, b.mode, b.Dismissed.Set(), b.Store.SourceEventIDs())
}

// Suggestion returns the visible suggestion with the given event id.
func (b *Board) Suggestion(id string) (suggest.VisibleEvent, bool) {
	for _, ev := range b.Suggestions() {
		if ev.ID == id {
			return ev, true
		}
	}
	return suggest.VisibleEvent{}, false
}

// Pin promotes the visible suggestion with the given event id.
func (b *Board) Pin(eventID string) (annotation.Annotation, error) {
	ev, ok := b.Suggestion(eventID)
	if !ok {
		return annotation.Annotation{}, fmt.Errorf("pin %q: %w", eventID, ErrUnknownEvent)
	}
	return b.Controller.Pin(ev)
}

// Dismiss hides the suggested event with the given id for the rest of the
// session. It reports whether the id was newly dismissed.
func (b *Board) Dismiss(eventID string) bool {
	added := b.Dismissed.Dismiss(eventID)
	b.log.Debug("dismiss", zap.String("event", eventID), zap.Bool("added", added))
	return added
}

// ResetDismissals makes every dismissed event eligible again.
func (b *Board) ResetDismissals() {
	b.Dismissed.Reset()
}
