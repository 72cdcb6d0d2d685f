// Package interact implements the drag-to-place and click-to-edit state
// machine that sits between a host UI and the annotation store.
//
// The host drives a Controller through an input-agnostic protocol:
// DragStart, PointerMove and Drop or CancelDrag for placement, and
// OpenEditor followed by draft edits and Save, Cancel or Delete for editing.
// Every call is synchronous and the store is written only by Drop, Save,
// Delete and Pin.
package interact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
)

// DefaultSpanLength is how many samples ConvertToSpan extends a point by.
const DefaultSpanLength = 3

// State is the controller's mode.
type State int

const (
	Idle State = iota
	Dragging
	Editing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Editing:
		return "editing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Template is the payload a drag carries: everything about the new
// annotation except its date.
type Template struct {
	Name        string
	Color       string
	Owner       string
	Description string
}

// EditSession is the draft for the single annotation being edited.
type EditSession struct {
	TargetID         string
	DraftName        string
	DraftOwner       string
	DraftDescription string
	DraftStartIndex  int
	DraftEndIndex    int
}

// IsPoint reports whether the draft covers a single sample.
func (s EditSession) IsPoint() bool { return s.DraftStartIndex == s.DraftEndIndex }

// Controller is the interaction state machine for one chart. It is not safe
// for concurrent use; hosts deliver events from a single loop.
type Controller struct {
	mapper *chart.Mapper
	store  *annotation.Store
	newID  func() string
	log    *zap.Logger

	spanLength  int
	pinnedColor string

	state     State
	candidate Template
	preview   int
	session   *EditSession
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transition tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithIDGenerator replaces the uuid-based id source.
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// WithSpanLength overrides DefaultSpanLength. Values below 1 are ignored.
func WithSpanLength(n int) Option {
	return func(c *Controller) {
		if n >= 1 {
			c.spanLength = n
		}
	}
}

// WithPinnedColor sets the color given to annotations created by Pin.
func WithPinnedColor(color string) Option {
	return func(c *Controller) { c.pinnedColor = color }
}

// NewController returns an idle controller that positions annotations with
// mapper and commits them to store. Both are shared with the host, so a
// Recompute on the mapper takes effect on the next pointer event.
func NewController(mapper *chart.Mapper, store *annotation.Store, opts ...Option) *Controller {
	c := &Controller{
		mapper:     mapper,
		store:      store,
		newID:      func() string { return uuid.New().String() },
		log:        zap.NewNop(),
		spanLength: DefaultSpanLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current mode.
func (c *Controller) State() State { return c.state }

// Preview returns the drag candidate and the sample index under the pointer.
// ok is false unless the controller is Dragging.
func (c *Controller) Preview() (tmpl Template, index int, ok bool) {
	if c.state != Dragging {
		return Template{}, 0, false
	}
	return c.candidate, c.preview, true
}

// Session returns a copy of the open draft. ok is false unless the
// controller is Editing.
func (c *Controller) Session() (EditSession, bool) {
	if c.state != Editing || c.session == nil {
		return EditSession{}, false
	}
	return *c.session, true
}

// DragStart begins placing a new annotation described by tmpl. An open
// draft is discarded without saving; a drag already in progress is replaced.
func (c *Controller) DragStart(tmpl Template) {
	if c.state == Editing {
		c.log.Debug("drag start discards open draft", zap.String("target", c.session.TargetID))
	}
	c.session = nil
	c.candidate = tmpl
	c.preview = 0
	c.transition(Dragging)
}

// PointerMove updates the drag preview. It is ignored outside Dragging.
func (c *Controller) PointerMove(x float64) {
	if c.state != Dragging {
		return
	}
	c.preview = c.mapper.IndexForPixel(x)
}

// Drop commits the dragged template as a manual point annotation at the
// sample under x and opens the editor on it. Dropping onto an empty chart
// creates nothing and returns ErrInvalidOperation; either way the drag ends.
func (c *Controller) Drop(x float64) (annotation.Annotation, error) {
	if c.state != Dragging {
		return annotation.Annotation{}, fmt.Errorf("drop while %s: %w", c.state, annotation.ErrInvalidOperation)
	}
	tmpl := c.candidate
	c.candidate = Template{}
	c.transition(Idle)

	idx := c.mapper.IndexForPixel(x)
	d, ok := c.mapper.DateForIndex(idx)
	if !ok {
		return annotation.Annotation{}, fmt.Errorf("drop on empty chart: %w", annotation.ErrInvalidOperation)
	}
	a := annotation.Annotation{
		ID:          c.newID(),
		Name:        tmpl.Name,
		Color:       tmpl.Color,
		Owner:       tmpl.Owner,
		Description: tmpl.Description,
		StartDate:   d,
		EndDate:     d,
		Provenance:  annotation.Manual,
	}
	if err := c.store.Add(a); err != nil {
		return annotation.Annotation{}, err
	}
	c.log.Debug("annotation dropped", zap.String("id", a.ID), zap.Int("index", idx), zap.Stringer("date", d))

	c.session = &EditSession{
		TargetID:         a.ID,
		DraftName:        a.Name,
		DraftOwner:       a.Owner,
		DraftDescription: a.Description,
		DraftStartIndex:  idx,
		DraftEndIndex:    idx,
	}
	c.transition(Editing)
	return a, nil
}

// CancelDrag abandons a drag without touching the store.
func (c *Controller) CancelDrag() {
	if c.state != Dragging {
		return
	}
	c.candidate = Template{}
	c.transition(Idle)
}

// OpenEditor seeds a draft from the stored annotation id. Any other open
// draft is discarded without saving, and a drag in progress is abandoned.
func (c *Controller) OpenEditor(id string) error {
	a, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("open editor: %q: %w", id, annotation.ErrNotFound)
	}
	if c.state == Editing && c.session.TargetID != id {
		c.log.Debug("switching editor", zap.String("from", c.session.TargetID), zap.String("to", id))
	}
	start := c.mapper.IndexForDate(a.StartDate)
	end := c.mapper.IndexForDate(a.EndDate)
	if end < start {
		end = start
	}
	c.candidate = Template{}
	c.session = &EditSession{
		TargetID:         a.ID,
		DraftName:        a.Name,
		DraftOwner:       a.Owner,
		DraftDescription: a.Description,
		DraftStartIndex:  start,
		DraftEndIndex:    end,
	}
	c.transition(Editing)
	return nil
}

// SetName replaces the draft name.
func (c *Controller) SetName(name string) {
	if s := c.draft(); s != nil {
		s.DraftName = name
	}
}

// SetOwner replaces the draft owner.
func (c *Controller) SetOwner(owner string) {
	if s := c.draft(); s != nil {
		s.DraftOwner = owner
	}
}

// SetDescription replaces the draft description.
func (c *Controller) SetDescription(desc string) {
	if s := c.draft(); s != nil {
		s.DraftDescription = desc
	}
}

// ChangeStartIndex moves the draft start to i, clamped to the series. The
// end is pulled forward if the start passes it.
func (c *Controller) ChangeStartIndex(i int) {
	s := c.draft()
	if s == nil {
		return
	}
	s.DraftStartIndex = c.mapper.Clamp(i)
	if s.DraftStartIndex > s.DraftEndIndex {
		s.DraftEndIndex = s.DraftStartIndex
	}
}

// ChangeEndIndex moves the draft end to i, clamped to the series. The start
// is pulled back if the end passes it.
func (c *Controller) ChangeEndIndex(i int) {
	s := c.draft()
	if s == nil {
		return
	}
	s.DraftEndIndex = c.mapper.Clamp(i)
	if s.DraftEndIndex < s.DraftStartIndex {
		s.DraftStartIndex = s.DraftEndIndex
	}
}

// ConvertToSpan extends a point draft by the span length, stopping at the
// last sample. It does nothing to a draft that is already a span.
func (c *Controller) ConvertToSpan() {
	s := c.draft()
	if s == nil || !s.IsPoint() {
		return
	}
	s.DraftEndIndex = c.mapper.Clamp(s.DraftStartIndex + c.spanLength)
}

// ConvertToPoint collapses the draft onto its start.
func (c *Controller) ConvertToPoint() {
	if s := c.draft(); s != nil {
		s.DraftEndIndex = s.DraftStartIndex
	}
}

// Save writes the draft back to the store and closes the editor. A draft
// without a name is rejected with ErrInvalidOperation and stays open.
func (c *Controller) Save() (annotation.Annotation, error) {
	s := c.draft()
	if s == nil {
		return annotation.Annotation{}, fmt.Errorf("save while %s: %w", c.state, annotation.ErrInvalidOperation)
	}
	if strings.TrimSpace(s.DraftName) == "" {
		return annotation.Annotation{}, fmt.Errorf("save %q: name is required: %w", s.TargetID, annotation.ErrInvalidOperation)
	}
	start, _ := c.mapper.DateForIndex(s.DraftStartIndex)
	end, _ := c.mapper.DateForIndex(s.DraftEndIndex)
	patch := annotation.Patch{
		Name:        &s.DraftName,
		Owner:       &s.DraftOwner,
		Description: &s.DraftDescription,
	}
	// An empty chart has no dates to write; keep the stored range.
	if c.mapper.Len() > 0 {
		patch.StartDate = &start
		patch.EndDate = &end
	}
	a, err := c.store.Update(s.TargetID, patch)
	if err != nil {
		if errors.Is(err, annotation.ErrNotFound) {
			c.closeSession()
		}
		return annotation.Annotation{}, err
	}
	c.log.Debug("annotation saved", zap.String("id", a.ID), zap.Stringer("start", a.StartDate), zap.Stringer("end", a.EndDate))
	c.closeSession()
	return a, nil
}

// Cancel discards the draft. The stored annotation is left as it was.
func (c *Controller) Cancel() {
	if c.state != Editing {
		return
	}
	c.closeSession()
}

// CloseEditor is Cancel under the name hosts use for focus loss, escape or
// a click outside the editor.
func (c *Controller) CloseEditor() { c.Cancel() }

// Delete removes the annotation being edited, whatever the draft holds.
func (c *Controller) Delete() error {
	s := c.draft()
	if s == nil {
		return fmt.Errorf("delete while %s: %w", c.state, annotation.ErrInvalidOperation)
	}
	c.store.Remove(s.TargetID)
	c.log.Debug("annotation deleted", zap.String("id", s.TargetID))
	c.closeSession()
	return nil
}

func (c *Controller) draft() *EditSession {
	if c.state != Editing {
		return nil
	}
	return c.session
}

func (c *Controller) closeSession() {
	c.session = nil
	c.transition(Idle)
}

func (c *Controller) transition(to State) {
	if c.state != to {
		c.log.Debug("transition", zap.Stringer("from", c.state), zap.Stringer("to", to))
	}
	c.state = to
}
