// Package tui hosts the annotation engine in a Bubble Tea terminal UI.
//
// The model owns presentation only. Geometry goes through the board's
// Mapper, placement and editing through its Controller, and suggestions
// through the board's reconciler. The chart spans the terminal width, so
// every WindowSizeMsg is a layout change that recomputes the mapper.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/interact"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
)

// Layout is the chart inset in terminal cells: room for the y-axis labels on
// the left and one spare column on the right.
func Layout() chart.Layout {
	return chart.Layout{MarginLeft: 9, MarginRight: 2}
}

const (
	chartRows = 8
	// Rows above the panel: title, chart, markers, suggestions, pointer, axis.
	headerRows = 1 + chartRows + 4
	chartTop   = 1
)

// EventsReloadedMsg carries a re-fetched suggested-event list.
type EventsReloadedMsg struct {
	Events []suggest.Event
	Err    error
}

// Options configures the model.
type Options struct {
	Title    string
	Template interact.Template // seed for new annotations
	ReadOnly bool
	// Persist is called after every change to the annotation set, the
	// dismissals or the display mode.
	Persist func(*timeline.Board) error
	Logger  *zap.Logger
}

type focus int

const (
	focusChart focus = iota
	focusSuggestions
)

const (
	fieldName = iota
	fieldOwner
	fieldDescription
	fieldCount
)

// Model is the root Bubble Tea model.
type Model struct {
	board *timeline.Board
	opts  Options
	log   *zap.Logger

	width, height int
	ready         bool
	panel         viewport.Model

	pointer    float64 // x in cells, snapped to samples
	focus      focus
	suggestion int // cursor in the suggestion list

	fields     [fieldCount]textinput.Model
	fieldFocus int

	status    string
	statusErr bool
}

// New creates a model over board.
func New(board *timeline.Board, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Template.Name == "" {
		opts.Template.Name = "New annotation"
	}
	m := Model{board: board, opts: opts, log: log}
	placeholders := [fieldCount]string{"Name", "Owner", "Description"}
	for i := range m.fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 120
		ti.Prompt = ""
		m.fields[i] = ti
	}
	m.pointer = board.Mapper.PixelForIndex(0)
	return m
}

// Board returns the board the model drives.
func (m Model) Board() *timeline.Board { return m.board }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case EventsReloadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("events reload: %w", msg.Err))
		} else {
			m.board.SetEvents(msg.Events)
			m.setStatus(fmt.Sprintf("%d suggested events reloaded", len(msg.Events)))
		}
		m.refreshPanel()
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.board.Controller.State() {
		case interact.Editing:
			return m.updateEditor(msg)
		case interact.Dragging:
			return m.updateDrag(msg)
		}
		return m.updateIdle(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	idx := m.pointerIndex()
	m.width, m.height = width, height
	m.board.Mapper.Recompute(float64(width))
	m.pointer = m.board.Mapper.PixelForIndex(idx)
	if m.board.Controller.State() == interact.Dragging {
		m.board.Controller.PointerMove(m.pointer)
	}

	h := max(1, height-headerRows-1)
	if !m.ready {
		m.panel = viewport.New(width, h)
		m.ready = true
	} else {
		m.panel.Width, m.panel.Height = width, h
	}
	for i := range m.fields {
		m.fields[i].Width = max(10, width-20)
	}
	m.refreshPanel()
}

func (m Model) pointerIndex() int {
	return m.board.Mapper.IndexForPixel(m.pointer)
}

func (m *Model) movePointer(delta int) {
	idx := m.board.Mapper.Clamp(m.pointerIndex() + delta)
	m.pointer = m.board.Mapper.PixelForIndex(idx)
	m.board.Controller.PointerMove(m.pointer)
}

func (m *Model) setStatus(s string) { m.status, m.statusErr = s, false }

func (m *Model) setError(err error) { m.status, m.statusErr = err.Error(), true }

// persist saves after a change. A failed save is reported but the in-memory
// state is kept.
func (m *Model) persist() {
	if m.opts.Persist == nil {
		return
	}
	if err := m.opts.Persist(m.board); err != nil {
		m.log.Warn("persist failed", zap.Error(err))
		m.setError(fmt.Errorf("save: %w", err))
	}
}

func (m *Model) readOnly() bool {
	if m.opts.ReadOnly {
		m.setStatus("read-only view")
	}
	return m.opts.ReadOnly
}

// ── Idle ──────────────────────────────────────────────────────────────────────

func (m Model) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.movePointer(-1)
	case "right", "l":
		m.movePointer(1)
	case "home":
		m.movePointer(-m.board.Mapper.Len())
	case "end":
		m.movePointer(m.board.Mapper.Len())
	case "tab":
		if m.focus == focusChart {
			m.focus = focusSuggestions
		} else {
			m.focus = focusChart
		}
	case "up", "k":
		if m.focus == focusSuggestions {
			m.suggestion = max(0, m.suggestion-1)
		} else {
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Update(msg)
			return m, cmd
		}
	case "down", "j":
		if m.focus == focusSuggestions {
			m.suggestion = min(m.suggestion+1, max(0, len(m.board.Suggestions())-1))
		} else {
			var cmd tea.Cmd
			m.panel, cmd = m.panel.Update(msg)
			return m, cmd
		}
	case "a":
		if !m.readOnly() {
			m.startDrag()
		}
	case "e", "enter":
		if !m.readOnly() {
			m.editAtPointer()
		}
	case "p":
		if !m.readOnly() {
			m.pinSelected()
		}
	case "x":
		if !m.readOnly() {
			m.dismissSelected()
		}
	case "R":
		if !m.readOnly() {
			m.board.ResetDismissals()
			m.setStatus("dismissals reset")
			m.persist()
		}
	case "m":
		m.board.SetMode(m.board.Mode().Next())
		m.suggestion = 0
		m.setStatus("display: " + string(m.board.Mode()))
		if !m.opts.ReadOnly {
			m.persist()
		}
	}
	m.refreshPanel()
	return m, nil
}

func (m *Model) startDrag() {
	m.board.Controller.DragStart(m.opts.Template)
	m.board.Controller.PointerMove(m.pointer)
	m.setStatus("placing: ←/→ move, enter drop, esc cancel")
}

// annotationAt returns the first annotation whose range covers sample idx.
func (m *Model) annotationAt(idx int) (annotation.Annotation, bool) {
	mp := m.board.Mapper
	for _, a := range m.board.Store.List() {
		if mp.IndexForDate(a.StartDate) <= idx && idx <= mp.IndexForDate(a.EndDate) {
			return a, true
		}
	}
	return annotation.Annotation{}, false
}

func (m *Model) editAtPointer() {
	a, ok := m.annotationAt(m.pointerIndex())
	if !ok {
		m.setStatus("no annotation under the pointer")
		return
	}
	m.openEditor(a.ID)
}

func (m *Model) openEditor(id string) {
	if err := m.board.Controller.OpenEditor(id); err != nil {
		m.setError(err)
		return
	}
	m.loadEditor()
}

func (m *Model) selectedSuggestion() (suggest.VisibleEvent, bool) {
	visible := m.sortedSuggestions()
	if len(visible) == 0 {
		return suggest.VisibleEvent{}, false
	}
	m.suggestion = min(m.suggestion, len(visible)-1)
	return visible[m.suggestion], true
}

func (m *Model) pinSelected() {
	ev, ok := m.selectedSuggestion()
	if !ok {
		m.setStatus("no suggestion selected")
		return
	}
	a, err := m.board.Pin(ev.ID)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("pinned " + a.Name)
	m.persist()
}

func (m *Model) dismissSelected() {
	ev, ok := m.selectedSuggestion()
	if !ok {
		m.setStatus("no suggestion selected")
		return
	}
	m.board.Dismiss(ev.ID)
	m.setStatus("dismissed " + ev.Label)
	m.persist()
}

// ── Dragging ──────────────────────────────────────────────────────────────────

func (m Model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.movePointer(-1)
	case "right", "l":
		m.movePointer(1)
	case "esc":
		m.board.Controller.CancelDrag()
		m.setStatus("placement cancelled")
	case "enter", " ", "space":
		m.drop(m.pointer)
	}
	m.refreshPanel()
	return m, nil
}

func (m *Model) drop(x float64) {
	a, err := m.board.Controller.Drop(x)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("placed on %s", a.StartDate))
	m.persist()
	m.loadEditor()
}

// ── Editing ───────────────────────────────────────────────────────────────────

// loadEditor copies the open draft into the text fields.
func (m *Model) loadEditor() {
	s, ok := m.board.Controller.Session()
	if !ok {
		return
	}
	m.fields[fieldName].SetValue(s.DraftName)
	m.fields[fieldOwner].SetValue(s.DraftOwner)
	m.fields[fieldDescription].SetValue(s.DraftDescription)
	m.focusField(fieldName)
}

func (m *Model) focusField(i int) {
	m.fieldFocus = i
	for j := range m.fields {
		if j == i {
			m.fields[j].Focus()
		} else {
			m.fields[j].Blur()
		}
	}
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.board.Controller
	s, _ := c.Session()
	switch msg.String() {
	case "esc":
		c.Cancel()
		m.setStatus("edit cancelled")
	case "enter":
		a, err := c.Save()
		if err != nil {
			if errors.Is(err, annotation.ErrInvalidOperation) {
				m.setError(errors.New("a name is required"))
			} else {
				m.setError(err)
			}
			break
		}
		m.setStatus("saved " + a.Name)
		m.persist()
	case "ctrl+d":
		if err := c.Delete(); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("deleted")
		m.persist()
	case "tab":
		m.focusField((m.fieldFocus + 1) % fieldCount)
	case "shift+tab":
		m.focusField((m.fieldFocus + fieldCount - 1) % fieldCount)
	case "shift+left":
		c.ChangeStartIndex(s.DraftStartIndex - 1)
	case "shift+right":
		c.ChangeStartIndex(s.DraftStartIndex + 1)
	case "ctrl+left":
		c.ChangeEndIndex(s.DraftEndIndex - 1)
	case "ctrl+right":
		c.ChangeEndIndex(s.DraftEndIndex + 1)
	case "ctrl+s":
		c.ConvertToSpan()
	case "ctrl+p":
		c.ConvertToPoint()
	default:
		var cmd tea.Cmd
		m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
		switch m.fieldFocus {
		case fieldName:
			c.SetName(m.fields[fieldName].Value())
		case fieldOwner:
			c.SetOwner(m.fields[fieldOwner].Value())
		case fieldDescription:
			c.SetDescription(m.fields[fieldDescription].Value())
		}
		m.refreshPanel()
		return m, cmd
	}
	m.refreshPanel()
	return m, nil
}

// ── Mouse ─────────────────────────────────────────────────────────────────────

// markerRow is the screen row holding annotation markers.
const markerRow = chartTop + chartRows

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	onChart := msg.Y >= chartTop && msg.Y <= markerRow
	x := float64(msg.X)
	c := m.board.Controller

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !onChart || m.opts.ReadOnly {
			return m, nil
		}
		editing := c.State() == interact.Editing
		if editing {
			// A click outside the editor closes it without placing anything.
			c.CloseEditor()
		}
		m.pointer = m.board.Mapper.PixelForIndex(m.board.Mapper.IndexForPixel(x))
		if msg.Y == markerRow {
			if a, ok := m.annotationAt(m.pointerIndex()); ok {
				m.openEditor(a.ID)
				break
			}
		}
		if editing {
			m.setStatus("edit closed")
			break
		}
		m.startDrag()
	case tea.MouseActionMotion:
		if c.State() == interact.Dragging {
			m.pointer = x
			c.PointerMove(x)
		}
	case tea.MouseActionRelease:
		if c.State() == interact.Dragging {
			m.pointer = m.board.Mapper.PixelForIndex(m.board.Mapper.IndexForPixel(x))
			m.drop(x)
		}
	}
	m.refreshPanel()
	return m, nil
}

// Run starts the TUI over board and returns when the user quits. events, if
// non-nil, delivers re-fetched suggestion lists while the program runs.
func Run(board *timeline.Board, opts Options, events <-chan EventsReloadedMsg) error {
	p := tea.NewProgram(New(board, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if events != nil {
		go func() {
			for msg := range events {
				p.Send(msg)
			}
		}()
	}
	_, err := p.Run()
	return err
}
